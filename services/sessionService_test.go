package services

import (
	"errors"
	"testing"

	"github.com/shokouhi/HootieChat/db"
	"github.com/shokouhi/HootieChat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService() *SessionService {
	return NewSessionService(db.NewMemorySessionRepository())
}

func TestUpsertProfileMergesPatch(t *testing.T) {
	svc := newTestSessionService()

	_, err := svc.UpsertProfile("s1", models.Profile{Name: "Dana", Interests: "tennis"})
	require.NoError(t, err)

	profile, err := svc.UpsertProfile("s1", models.Profile{TargetLanguage: "spanish", LanguageLevel: "beginner"})
	require.NoError(t, err)

	assert.Equal(t, "Dana", profile.Name)
	assert.Equal(t, "tennis", profile.Interests)
	assert.Equal(t, "Spanish", profile.TargetLanguage)
	assert.Equal(t, "A1", profile.LanguageLevel)
}

func TestUpsertProfileNormalizesLanguageAliases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "mandarin alias", input: "mandarin", expected: "Mandarin Chinese"},
		{name: "msa alias", input: "MSA", expected: "Modern Standard Arabic"},
		{name: "case insensitive", input: "FRENCH", expected: "French"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestSessionService()
			profile, err := svc.UpsertProfile("s1", models.Profile{TargetLanguage: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, profile.TargetLanguage)
		})
	}
}

func TestUpsertProfileRejectsUnsupportedLanguage(t *testing.T) {
	svc := newTestSessionService()

	_, err := svc.UpsertProfile("s1", models.Profile{TargetLanguage: "Klingon", Name: "Dana"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))

	// The whole patch is rejected, including the valid fields.
	session, err := svc.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, session.Profile.Name)
	assert.Empty(t, session.Profile.TargetLanguage)
}

func TestSaveQuizResultStampsTimestamp(t *testing.T) {
	svc := newTestSessionService()

	result, err := svc.SaveQuizResult("s1", "podcast", "bien", 0.95, &models.QuizContext{ExpectedAnswer: "bien"})
	require.NoError(t, err)
	assert.False(t, result.Timestamp.IsZero())

	session, err := svc.Get("s1")
	require.NoError(t, err)
	require.Len(t, session.QuizResults, 1)
	assert.Equal(t, "podcast", session.QuizResults[0].TestType)
	assert.Equal(t, 0.95, session.QuizResults[0].Score)
}

func TestAddTestPreferencesAccumulates(t *testing.T) {
	svc := newTestSessionService()

	require.NoError(t, svc.AddTestPreferences("s1", map[string]int{"podcast": 3, "reading": 0}))
	require.NoError(t, svc.AddTestPreferences("s1", map[string]int{"podcast": 2}))

	session, err := svc.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 5, session.TestPreferences["podcast"])
	// Zero weights are not recorded at all.
	_, recorded := session.TestPreferences["reading"]
	assert.False(t, recorded)
}

func TestActiveQuizRoundTrip(t *testing.T) {
	svc := newTestSessionService()

	err := svc.SetActiveQuiz("s1", &models.ActiveQuiz{
		TestType: "keyword_match",
		Pairs:    []models.WordPair{{Word: "gato", English: "cat"}},
	})
	require.NoError(t, err)

	quiz, err := svc.TakeActiveQuiz("s1", "keyword_match")
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, "gato", quiz.Pairs[0].Word)

	// Taking consumes the pinned quiz.
	quiz, err = svc.TakeActiveQuiz("s1", "keyword_match")
	require.NoError(t, err)
	assert.Nil(t, quiz)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "canonical", input: "Spanish", expected: "Spanish"},
		{name: "alias chinese", input: "chinese", expected: "Mandarin Chinese"},
		{name: "alias arabic", input: "arabic", expected: "Modern Standard Arabic"},
		{name: "whitespace", input: "  russian  ", expected: "Russian"},
		{name: "unsupported", input: "German", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLanguage(tt.input))
		})
	}
}
