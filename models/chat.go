package models

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// TurnReply is the orchestrator's output for one turn. TestType is empty
// when no exercise should be surfaced. AutoContinue marks feedback turns
// that immediately roll into the next exercise.
type TurnReply struct {
	Reply        string `json:"reply"`
	TestType     string `json:"test_type,omitempty"`
	IsFirstTurn  bool   `json:"is_first_turn,omitempty"`
	AutoContinue bool   `json:"auto_continue,omitempty"`
}

type QuizResultRequest struct {
	SessionID string  `json:"sessionId"`
	TestType  string  `json:"testType"`
	UserInput string  `json:"userInput"`
	Score     float64 `json:"score"`
}

type QuizResultResponse struct {
	Success  bool       `json:"success"`
	Result   QuizResult `json:"result"`
	Feedback string     `json:"feedback"`
	TestType string     `json:"test_type,omitempty"`
}
