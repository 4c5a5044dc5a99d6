package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ActionAnswer = "answer"
	ActionTool   = "tool"
)

// Decision is the parsed output of the planning step.
type Decision struct {
	Action string `json:"action"`
	Tool   string `json:"tool"`
	Query  string `json:"query"`
}

// ParseDecision extracts the decision JSON from raw model output. Models
// routinely wrap JSON in code fences or prose, so parsing cuts from the
// first '{' to the last '}' before unmarshalling.
func ParseDecision(raw string) (*Decision, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in decision output: %q", truncate(raw, 120))
	}

	var decision Decision
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decision); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}

	decision.Action = strings.ToLower(strings.TrimSpace(decision.Action))
	decision.Tool = strings.TrimSpace(decision.Tool)
	decision.Query = strings.TrimSpace(decision.Query)

	switch decision.Action {
	case ActionAnswer:
		return &decision, nil
	case ActionTool:
		if decision.Tool == "" {
			return nil, fmt.Errorf("tool action without a tool name")
		}
		return &decision, nil
	default:
		return nil, fmt.Errorf("unknown decision action %q", decision.Action)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
