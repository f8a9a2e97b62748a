package models

// Exercise payloads returned by the per-kind generators. Difficulty is the
// CEFR band the content was generated at, OriginalLevel the learner's
// resolved level before the band adjustment.

type UnitCompletionQuiz struct {
	Sentence      string `json:"sentence"`
	MaskedWord    string `json:"masked_word"`
	Hint          string `json:"hint"`
	Difficulty    string `json:"difficulty"`
	OriginalLevel string `json:"original_level"`
}

type KeywordMatchQuiz struct {
	Pairs         []WordPair `json:"pairs"`
	Difficulty    string     `json:"difficulty"`
	OriginalLevel string     `json:"original_level"`
}

type ImageDetectionQuiz struct {
	ObjectWord    string `json:"object_word"`
	ImageURL      string `json:"image_url,omitempty"`
	ImageBase64   string `json:"image_base64,omitempty"`
	Difficulty    string `json:"difficulty"`
	OriginalLevel string `json:"original_level"`
}

type PodcastQuiz struct {
	Conversation  string `json:"conversation"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Topic         string `json:"topic"`
	AudioBase64   string `json:"audio_base64,omitempty"`
	Difficulty    string `json:"difficulty"`
	OriginalLevel string `json:"original_level"`
}

type ReadingQuiz struct {
	ArticleTitle  string `json:"article_title"`
	ArticleText   string `json:"article_text"`
	Question      string `json:"question"`
	OriginalURL   string `json:"original_url,omitempty"`
	Difficulty    string `json:"difficulty"`
	OriginalLevel string `json:"original_level"`
}

type PronunciationQuiz struct {
	Sentence      string `json:"sentence"`
	Difficulty    string `json:"difficulty"`
	OriginalLevel string `json:"original_level"`
}

// Validation is the common grading result for answer-based exercises.
// CorrectAnswer echoes the pinned answer so the client can reveal it.
type Validation struct {
	Correct       bool    `json:"correct"`
	Score         float64 `json:"score"`
	Feedback      string  `json:"feedback"`
	CorrectAnswer string  `json:"correct_answer,omitempty"`
}

type MatchResult struct {
	Word           string `json:"word"`
	English        string `json:"english"`
	IsCorrect      bool   `json:"is_correct"`
	CorrectEnglish string `json:"correct_english,omitempty"`
}

type KeywordMatchValidation struct {
	AllCorrect   bool          `json:"all_correct"`
	Score        float64       `json:"score"`
	Results      []MatchResult `json:"results"`
	Total        int           `json:"total"`
	CorrectCount int           `json:"correct_count"`
}

type ReadingValidation struct {
	Score           float64 `json:"score"`
	NormalizedScore float64 `json:"normalized_score"`
	Feedback        string  `json:"feedback"`
	Explanation     string  `json:"explanation"`
}

type PronunciationValidation struct {
	AccuracyScore      float64 `json:"accuracy_score"`
	FluencyScore       float64 `json:"fluency_score"`
	CompletenessScore  float64 `json:"completeness_score"`
	PronunciationScore float64 `json:"pronunciation_score"`
	RecognizedText     string  `json:"recognized_text,omitempty"`
	Error              string  `json:"error,omitempty"`
}
