package quiz

import (
	"testing"

	"github.com/shokouhi/HootieChat/models"

	"github.com/stretchr/testify/assert"
)

func TestScoreLiteral(t *testing.T) {
	tests := []struct {
		name        string
		user        string
		correct     string
		containment float64
		wantCorrect bool
		wantScore   float64
	}{
		{name: "exact match", user: "jardín", correct: "jardín", wantCorrect: true, wantScore: 1.0},
		{name: "case and whitespace insensitive", user: "  Jardín ", correct: "jardín", wantCorrect: true, wantScore: 1.0},
		{name: "accent slip", user: "jardin", correct: "jardín", wantCorrect: true, wantScore: 0.95},
		{name: "containment partial credit", user: "el jardín grande", correct: "jardín", containment: 0.3, wantCorrect: false, wantScore: 0.3},
		{name: "reverse containment", user: "gat", correct: "gato", containment: 0.5, wantCorrect: false, wantScore: 0.5},
		{name: "wrong answer", user: "mesa", correct: "jardín", containment: 0.3, wantCorrect: false, wantScore: 0.0},
		{name: "empty answer", user: "", correct: "jardín", containment: 0.3, wantCorrect: false, wantScore: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreLiteral(tt.user, tt.correct, tt.containment)
			assert.Equal(t, tt.wantCorrect, got.Correct)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.NotEmpty(t, got.Feedback)
		})
	}
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "jardin", foldAccents("Jardín"))
	assert.Equal(t, "nino", foldAccents("  niño "))
	assert.Equal(t, "cafe", foldAccents("café"))
}

func TestRecentQuizContent(t *testing.T) {
	results := []models.QuizResult{
		{TestType: "image_detection", Context: &models.QuizContext{ExpectedAnswer: "gato"}},
		{TestType: "keyword_match", Context: &models.QuizContext{Words: []string{"casa", "Perro"}}},
		{TestType: "unit_completion", Context: &models.QuizContext{ExpectedAnswer: "jardín"}},
		{TestType: "pronunciation", Context: &models.QuizContext{ExpectedAnswer: "Me gusta el café"}},
		{TestType: "podcast", Context: nil},
	}

	got := recentQuizContent(results)
	assert.Equal(t, []string{"gato", "casa", "perro"}, got.Words)
	assert.Equal(t, []string{"jardín"}, got.Answers)
	assert.Equal(t, []string{"me gusta el café"}, got.Sentences)
}

func TestRecentQuizContentWindow(t *testing.T) {
	var results []models.QuizResult
	for i := 0; i < 10; i++ {
		results = append(results, models.QuizResult{
			TestType: "image_detection",
			Context:  &models.QuizContext{ExpectedAnswer: string(rune('a' + i))},
		})
	}

	got := recentQuizContent(results)
	assert.Len(t, got.Words, recentWindow)
	assert.Equal(t, "f", got.Words[0])
}

func TestAvoidClause(t *testing.T) {
	assert.Empty(t, avoidClause("words", nil))
	assert.Contains(t, avoidClause("words", []string{"gato", "mesa"}), "gato, mesa")
}

func TestInterestsClause(t *testing.T) {
	assert.Empty(t, interestsClause(""))
	assert.Contains(t, interestsClause("tennis"), "tennis")
}
