package agent

import (
	"testing"

	"github.com/shokouhi/HootieChat/models"

	"github.com/stretchr/testify/assert"
)

func resultsFor(types ...string) []models.QuizResult {
	results := make([]models.QuizResult, len(types))
	for i, t := range types {
		results[i] = models.QuizResult{TestType: t, Score: 0.8}
	}
	return results
}

func TestSelectTestTypeExplicitRequestWins(t *testing.T) {
	got := selectTestType(resultsFor("image_detection"), nil, "podcast")
	assert.Equal(t, "podcast", got)
}

func TestSelectTestTypeIgnoresUnknownRequest(t *testing.T) {
	got := selectTestType(nil, nil, "essay_writing")
	assert.Equal(t, "image_detection", got)
}

func TestSelectTestTypeSequentialOrder(t *testing.T) {
	assert.Equal(t, "image_detection", selectTestType(nil, nil, ""))
	assert.Equal(t, "unit_completion", selectTestType(resultsFor("image_detection"), nil, ""))
	assert.Equal(t, "reading", selectTestType(resultsFor("image_detection", "unit_completion", "keyword_match", "pronunciation", "podcast"), nil, ""))
}

func TestSelectTestTypeRandomAfterAllCompleted(t *testing.T) {
	all := resultsFor(TestTypes...)
	for i := 0; i < 20; i++ {
		got := selectTestType(all, nil, "")
		assert.True(t, isKnownTestType(got))
	}
}

func TestSelectTestTypePreferencesWeightSelection(t *testing.T) {
	all := resultsFor(TestTypes...)
	prefs := map[string]int{"podcast": 50}

	podcastCount := 0
	for i := 0; i < 100; i++ {
		if selectTestType(all, prefs, "") == "podcast" {
			podcastCount++
		}
	}
	// With weight 50 against 1 each for the other five, podcast should
	// dominate heavily.
	assert.Greater(t, podcastCount, 60)
}

func TestNextTestTypeAfterFeedbackNeverRepeatsLast(t *testing.T) {
	all := resultsFor(TestTypes...)
	for i := 0; i < 20; i++ {
		got := nextTestTypeAfterFeedback(all, "reading")
		assert.NotEqual(t, "reading", got)
		assert.True(t, isKnownTestType(got))
	}
}

func TestNextTestTypeAfterFeedbackSequentialFirst(t *testing.T) {
	got := nextTestTypeAfterFeedback(resultsFor("image_detection"), "image_detection")
	assert.Equal(t, "unit_completion", got)
}

func TestAllCompletedOnce(t *testing.T) {
	assert.False(t, allCompletedOnce(resultsFor("image_detection", "podcast")))
	assert.True(t, allCompletedOnce(resultsFor(TestTypes...)))
}

func TestClassifyTurn(t *testing.T) {
	gated := models.Profile{TargetLanguage: "Spanish", LanguageLevel: "B1"}
	history := []models.ChatMessage{{Role: "user", Content: "hola"}}

	tests := []struct {
		name    string
		session models.Session
		message string
		intent  userIntent
		want    turnMode
	}{
		{
			name:    "empty history is the first turn",
			session: models.Session{},
			message: "hi, I want to learn Spanish",
			want:    modeFirstTurn,
		},
		{
			name:    "empty message with results is feedback",
			session: models.Session{Profile: gated, History: history, QuizResults: resultsFor("podcast")},
			message: "",
			want:    modeQuizFeedback,
		},
		{
			name:    "empty message without results is not feedback",
			session: models.Session{Profile: gated, History: history},
			message: "",
			want:    modeRegular,
		},
		{
			name:    "help request",
			session: models.Session{Profile: gated, History: history},
			message: "what does gato mean?",
			intent:  userIntent{IsLanguageQuestion: true},
			want:    modeHelp,
		},
		{
			name:    "missing target language",
			session: models.Session{History: history},
			message: "my name is Sam",
			want:    modeHelp,
		},
		{
			name:    "regular gated turn",
			session: models.Session{Profile: gated, History: history},
			message: "let's keep going",
			want:    modeRegular,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTurn(&tt.session, tt.message, tt.intent))
		})
	}
}
