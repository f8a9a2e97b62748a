package agent

import (
	"strings"
	"testing"

	"github.com/shokouhi/HootieChat/models"

	"github.com/stretchr/testify/assert"
)

func TestQuizIntroPrompt(t *testing.T) {
	assert.Equal(t, "Announce a pronunciation practice in Spanish.", quizIntroPrompt("Spanish", "pronunciation"))
	assert.Equal(t, "Announce an exercise in French.", quizIntroPrompt("French", "not_a_kind"))
}

func TestQuizIntroFallbacksCoverAllTestTypes(t *testing.T) {
	for _, testType := range TestTypes {
		assert.NotEmpty(t, testTypeLabels[testType], "missing label for %s", testType)
		assert.NotEmpty(t, fallbackQuizIntros[testType], "missing fallback for %s", testType)
	}
}

func TestMissingInfoSectionPrioritizesTargetLanguage(t *testing.T) {
	section := missingInfoSection([]string{"name", "target_language"}, models.Profile{}, "hi there")
	assert.Contains(t, section, "hasn't specified what language")
}

func TestMissingInfoSectionDetectsMentionedLanguage(t *testing.T) {
	section := missingInfoSection([]string{"target_language"}, models.Profile{}, "I want to learn spanish!")
	assert.Contains(t, section, "may have just mentioned their target language")
}

func TestMissingInfoSectionWithoutTargetLanguage(t *testing.T) {
	profile := models.Profile{TargetLanguage: "Spanish"}
	section := missingInfoSection([]string{"age", "language_level"}, profile, "")
	assert.Contains(t, section, "their age")
	assert.Contains(t, section, "their current level in Spanish")
}

func TestMissingInfoSectionEmpty(t *testing.T) {
	assert.Empty(t, missingInfoSection(nil, models.Profile{}, ""))
}

func TestFeedbackSectionTone(t *testing.T) {
	section := feedbackSection(&models.QuizResult{TestType: "podcast", Score: 0.45})
	assert.Contains(t, section, "Score: 45%")
	assert.Contains(t, section, "fake positivity")
	assert.Empty(t, feedbackSection(nil))
}

func TestProfileSectionAlwaysCarriesSessionID(t *testing.T) {
	section := profileSection("abc-123", models.Profile{})
	assert.Contains(t, section, "Session ID: abc-123")

	section = profileSection("abc-123", models.Profile{Name: "Ana", TargetLanguage: "Spanish"})
	assert.Contains(t, section, "Name: Ana")
	assert.Contains(t, section, "Target Language: Spanish")
}

func TestTestInstructionSectionNeverLeaksContent(t *testing.T) {
	for _, testType := range TestTypes {
		section := testInstructionSection(testType)
		assert.Contains(t, section, strings.ToUpper(testType))
		assert.Contains(t, section, "quiz container")
	}
	assert.Empty(t, testInstructionSection(""))
}
