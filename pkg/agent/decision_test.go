package agent

import (
	"testing"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAction string
		wantTool   string
		wantQuery  string
		wantErr    bool
	}{
		{
			name:       "plain answer decision",
			raw:        `{"action": "answer"}`,
			wantAction: ActionAnswer,
		},
		{
			name:       "tool decision",
			raw:        `{"action": "tool", "tool": "web_search", "query": "go 1.24 release date"}`,
			wantAction: ActionTool,
			wantTool:   "web_search",
			wantQuery:  "go 1.24 release date",
		},
		{
			name:       "json wrapped in code fences",
			raw:        "```json\n{\"action\": \"tool\", \"tool\": \"retrieve_user_documents\", \"query\": \"contract terms\"}\n```",
			wantAction: ActionTool,
			wantTool:   "retrieve_user_documents",
			wantQuery:  "contract terms",
		},
		{
			name:       "json surrounded by prose",
			raw:        `Sure, here is my decision: {"action": "answer"} hope that helps`,
			wantAction: ActionAnswer,
		},
		{
			name:       "uppercase action is normalized",
			raw:        `{"action": "ANSWER"}`,
			wantAction: ActionAnswer,
		},
		{
			name:    "no json at all",
			raw:     "I think I should answer directly",
			wantErr: true,
		},
		{
			name:    "tool action without tool name",
			raw:     `{"action": "tool", "query": "something"}`,
			wantErr: true,
		},
		{
			name:    "unknown action",
			raw:     `{"action": "retry"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"action": "tool",`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := ParseDecision(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", decision)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", decision.Action, tt.wantAction)
			}
			if decision.Tool != tt.wantTool {
				t.Errorf("tool = %q, want %q", decision.Tool, tt.wantTool)
			}
			if decision.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", decision.Query, tt.wantQuery)
			}
		})
	}
}
