package agent

// TurnState tracks tool usage within a single turn. One turn commits to at
// most one tool track, and a track gets the initial attempt plus a single
// reformulated retry.
type TurnState struct {
	track    string
	attempts int
	retries  int
}

func NewTurnState() *TurnState {
	return &TurnState{}
}

// RecordAttempt marks one invocation against the given tool's track.
func (s *TurnState) RecordAttempt(toolName string) {
	s.track = toolName
	s.attempts++
}

// RecordRetry marks that the single reformulated retry was spent.
func (s *TurnState) RecordRetry() {
	s.retries++
}

func (s *TurnState) Track() string {
	return s.track
}

func (s *TurnState) Attempts() int {
	return s.attempts
}

func (s *TurnState) Retries() int {
	return s.retries
}
