package factory

import (
	"fmt"

	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/llm/ollama"
	"rag-chat-be/pkg/llm/openai"
)

// NewLLMProvider builds the configured provider.
// Supported: "ollama", "openai" (including OpenAI-compatible endpoints via baseURL).
func NewLLMProvider(providerName, modelName, ollamaBaseURL, openaiBaseURL, openaiAPIKey string) (llm.LLMProvider, error) {
	switch providerName {
	case "ollama":
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	case "openai":
		if openaiAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY is empty")
		}
		return openai.NewOpenAIProvider(openaiAPIKey, openaiBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", providerName)
	}
}
