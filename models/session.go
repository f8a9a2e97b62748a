package models

import "time"

// Profile holds what the tutor knows about the learner. TargetLanguage and
// LanguageLevel gate exercise generation; the rest personalizes content.
type Profile struct {
	Name           string `json:"name,omitempty"`
	Age            string `json:"age,omitempty"`
	Interests      string `json:"interests,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	LanguageLevel  string `json:"language_level,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type QuizContext struct {
	ExpectedAnswer  string   `json:"expected_answer,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty"`
	RawMetrics      string   `json:"raw_metrics,omitempty"`
	Words           []string `json:"words,omitempty"`
}

type QuizResult struct {
	TestType  string       `json:"test_type"`
	UserInput string       `json:"user_input"`
	Score     float64      `json:"score"`
	Timestamp time.Time    `json:"timestamp"`
	Context   *QuizContext `json:"context,omitempty"`
}

type Assessment struct {
	Level      string `json:"level"`
	Reason     string `json:"reason"`
	NextTarget string `json:"next_target,omitempty"`
}

// ActiveQuiz pins the answers of an exercise between generation and
// validation so the client never has to be trusted with them.
type ActiveQuiz struct {
	TestType    string     `json:"test_type"`
	Answer      string     `json:"answer,omitempty"`
	Sentence    string     `json:"sentence,omitempty"`
	Hint        string     `json:"hint,omitempty"`
	Pairs       []WordPair `json:"pairs,omitempty"`
	Question    string     `json:"question,omitempty"`
	ArticleText string     `json:"article_text,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
}

type WordPair struct {
	Word    string `json:"word"`
	English string `json:"english"`
}

type Session struct {
	ID              string                 `json:"id"`
	Profile         Profile                `json:"profile"`
	History         []ChatMessage          `json:"history"`
	QuizResults     []QuizResult           `json:"quiz_results"`
	TestPreferences map[string]int         `json:"test_preferences,omitempty"`
	LastAssessment  *Assessment            `json:"last_assessment,omitempty"`
	ActiveQuizzes   map[string]*ActiveQuiz `json:"active_quizzes,omitempty"`
}
