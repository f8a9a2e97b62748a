package db

import (
	"sync"
	"testing"
	"time"

	"github.com/shokouhi/HootieChat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepositoryAutoCreates(t *testing.T) {
	repo := NewMemorySessionRepository()

	session, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.Empty(t, session.History)
	assert.Empty(t, session.QuizResults)
	assert.NotNil(t, session.TestPreferences)
	assert.NotNil(t, session.ActiveQuizzes)
}

func TestMemorySessionRepositoryRejectsEmptyID(t *testing.T) {
	repo := NewMemorySessionRepository()

	_, err := repo.Get("")
	assert.Error(t, err)

	_, err = repo.Update("", func(*models.Session) error { return nil })
	assert.Error(t, err)
}

func TestMemorySessionRepositoryUpdateIsVisible(t *testing.T) {
	repo := NewMemorySessionRepository()

	_, err := repo.Update("s1", func(s *models.Session) error {
		s.Profile.TargetLanguage = "Spanish"
		s.History = append(s.History, models.ChatMessage{Role: "user", Content: "hola"})
		return nil
	})
	require.NoError(t, err)

	session, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "Spanish", session.Profile.TargetLanguage)
	require.Len(t, session.History, 1)
	assert.Equal(t, "hola", session.History[0].Content)
}

func TestMemorySessionRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemorySessionRepository()

	_, err := repo.Update("s1", func(s *models.Session) error {
		s.QuizResults = append(s.QuizResults, models.QuizResult{
			TestType:  "podcast",
			Score:     0.8,
			Timestamp: time.Now(),
			Context:   &models.QuizContext{ExpectedAnswer: "bien", Words: []string{"bien"}},
		})
		return nil
	})
	require.NoError(t, err)

	first, err := repo.Get("s1")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	first.QuizResults[0].Context.ExpectedAnswer = "mutated"
	first.TestPreferences["podcast"] = 99

	second, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "bien", second.QuizResults[0].Context.ExpectedAnswer)
	assert.Zero(t, second.TestPreferences["podcast"])
}

func TestMemorySessionRepositoryConcurrentAppends(t *testing.T) {
	repo := NewMemorySessionRepository()

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.Update("s1", func(s *models.Session) error {
				s.QuizResults = append(s.QuizResults, models.QuizResult{TestType: "reading", Score: 0.5})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	session, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Len(t, session.QuizResults, writers)
}

func TestMemorySessionRepositoryUpdateErrorLeavesStateUntouched(t *testing.T) {
	repo := NewMemorySessionRepository()

	_, err := repo.Update("s1", func(s *models.Session) error {
		s.Profile.Name = "Dana"
		return nil
	})
	require.NoError(t, err)

	_, err = repo.Update("s1", func(s *models.Session) error {
		return assert.AnError
	})
	assert.Error(t, err)

	session, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", session.Profile.Name)
}
