package controller

import (
	"bufio"
	"context"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Direct(ctx *fiber.Ctx) error
	Prompt(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.Direct) // no auth: stateless passthrough
	h.Use(serverutils.JwtMiddleware)
	h.Post(":thread_id", c.Prompt)
	h.Get(":thread_id", c.History)
}

// Direct streams a plain model reply with no thread state and no tools.
func (c *chatController) Direct(ctx *fiber.Ctx) error {
	var req dto.PromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The request context dies with the handler, streaming runs on its
		// own context.
		c.chatService.StreamDirect(context.Background(), &req, w)
	}))
	return nil
}

// Prompt runs one agent turn against a thread and streams NDJSON events.
// Authorization happens before the stream opens so a rejected caller gets
// a status code, not a broken stream.
func (c *chatController) Prompt(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	threadId, err := uuid.Parse(ctx.Params("thread_id"))
	if err != nil {
		return serverutils.NewBadRequest("Invalid thread id")
	}

	var req dto.PromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatService.Authorize(ctx.Context(), userId, threadId); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		c.chatService.StreamTurn(context.Background(), userId, threadId, &req, w)
	}))
	return nil
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	threadId, err := uuid.Parse(ctx.Params("thread_id"))
	if err != nil {
		return serverutils.NewBadRequest("Invalid thread id")
	}

	res, err := c.chatService.History(ctx.Context(), userId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat history", res))
}
