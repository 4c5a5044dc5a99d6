package dto

type PromptRequest struct {
	Prompt    string `json:"prompt" validate:"required"`
	ModelName string `json:"model_name"`
}

// ChatMessageResponse is one visible transcript entry. Tool traffic is
// filtered out before history is returned.
type ChatMessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
