package bootstrap

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/controller"
	"rag-chat-be/internal/handler"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/mailer"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/internal/service"
	"rag-chat-be/internal/websocket"
	"rag-chat-be/pkg/agent"
	"rag-chat-be/pkg/agent/stream"
	"rag-chat-be/pkg/agent/tool"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/llm/factory"
	pktNats "rag-chat-be/pkg/nats"
	"rag-chat-be/pkg/websearch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	ThreadController   controller.IThreadController
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background Services (Exposed for main.go to run)
	IndexerService service.IIndexerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.Gemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Agent
	agentLogger := newAgentLogger("logs/agent.log")

	searcher := service.NewPassageSearcher(uowFactory)
	tools := []tool.Tool{
		tool.NewDocumentRetriever(embeddingProvider, searcher, agentLogger),
	}
	if cfg.Keys.Tavily != "" {
		tools = append(tools, tool.NewWebSearch(websearch.NewClient(cfg.Keys.Tavily), agentLogger))
	} else {
		log.Printf("[WARN] TAVILY_API_KEY not set, web search tool disabled")
	}

	checkpointStore := service.NewCheckpointStore(uowFactory)
	gate := agent.NewGate(llmProvider, agentLogger)
	loop := agent.NewLoop(llmProvider, tools, gate, checkpointStore, agentLogger)
	mux := stream.NewMultiplexer(agentLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.IndexTopic, pubSub)
	indexerService := service.NewIndexerService(
		pubSub,
		cfg.Keys.IndexTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	authService := service.NewAuthService(uowFactory, emailService)
	threadService := service.NewThreadService(uowFactory, checkpointStore, natsPub, cfg.App.UploadDir, sysLogger)
	documentService := service.NewDocumentService(uowFactory, publisherService, cfg.App.UploadDir, sysLogger)
	chatService := service.NewChatService(loop, mux, llmProvider, uowFactory, sysLogger)

	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		ThreadController:   controller.NewThreadController(threadService),
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),

		IndexerService: indexerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}

// newAgentLogger writes the agent's internal trace to its own file so the
// reason/act/observe steps can be replayed without digging through the
// request log.
func newAgentLogger(path string) *log.Logger {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return log.Default()
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return log.Default()
	}
	return log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
}
