package tool

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rag-chat-be/internal/constant"
	"rag-chat-be/pkg/websearch"
)

// SentinelNoResults is the observation emitted when the search backend
// returns nothing, or fails.
const SentinelNoResults = "No search results"

// WebSearch answers questions about current or public information by
// querying an external search API.
type WebSearch struct {
	client *websearch.Client
	logger *log.Logger
}

func NewWebSearch(client *websearch.Client, logger *log.Logger) *WebSearch {
	return &WebSearch{client: client, logger: logger}
}

func (w *WebSearch) Name() string {
	return constant.ToolNameWebSearch
}

func (w *WebSearch) Description() string {
	return "Searches the public web for current events and general information."
}

func (w *WebSearch) Invoke(ctx context.Context, query string, inv Invocation) (string, bool) {
	results, err := w.client.Search(ctx, query)
	if err != nil {
		w.logger.Printf("[WEBSEARCH] search failed: %v", err)
		return SentinelNoResults, false
	}
	if len(results) == 0 {
		return SentinelNoResults, false
	}

	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s\n%s\n%s", i+1, res.Title, res.Content, res.URL)
	}
	return sb.String(), true
}
