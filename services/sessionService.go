package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shokouhi/HootieChat/db"
	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"
)

// ErrUnsupportedLanguage marks a profile patch whose target language is not
// in the supported set. The write is rejected as a whole.
var ErrUnsupportedLanguage = errors.New("unsupported target language")

// SessionService owns all session state transitions. Language and level
// values are normalized at this boundary so nothing unnormalized is ever
// stored.
type SessionService struct {
	repo db.SessionRepository
}

func NewSessionService(repo db.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(sessionID string) (*models.Session, error) {
	return s.repo.Get(sessionID)
}

// UpsertProfile merges the non-empty fields of patch into the stored
// profile. A patch naming an unsupported target language fails with
// ErrUnsupportedLanguage and nothing is written.
func (s *SessionService) UpsertProfile(sessionID string, patch models.Profile) (*models.Profile, error) {
	if patch.TargetLanguage != "" {
		normalized := NormalizeLanguage(patch.TargetLanguage)
		if normalized == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, patch.TargetLanguage)
		}
		patch.TargetLanguage = normalized
	}
	if patch.LanguageLevel != "" {
		patch.LanguageLevel = cefr.Normalize(patch.LanguageLevel)
	}

	session, err := s.repo.Update(sessionID, func(session *models.Session) error {
		if patch.Name != "" {
			session.Profile.Name = patch.Name
		}
		if patch.Age != "" {
			session.Profile.Age = patch.Age
		}
		if patch.Interests != "" {
			session.Profile.Interests = patch.Interests
		}
		if patch.TargetLanguage != "" {
			session.Profile.TargetLanguage = patch.TargetLanguage
		}
		if patch.LanguageLevel != "" {
			session.Profile.LanguageLevel = patch.LanguageLevel
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	log.Printf("[INFO] Profile updated for session %s: language=%s level=%s",
		sessionID, session.Profile.TargetLanguage, session.Profile.LanguageLevel)
	return &session.Profile, nil
}

func (s *SessionService) AppendHistory(sessionID string, messages ...models.ChatMessage) error {
	_, err := s.repo.Update(sessionID, func(session *models.Session) error {
		session.History = append(session.History, messages...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *SessionService) SaveQuizResult(sessionID, testType, userInput string, score float64, context *models.QuizContext) (models.QuizResult, error) {
	result := models.QuizResult{
		TestType:  testType,
		UserInput: userInput,
		Score:     score,
		Timestamp: time.Now(),
		Context:   context,
	}

	_, err := s.repo.Update(sessionID, func(session *models.Session) error {
		session.QuizResults = append(session.QuizResults, result)
		return nil
	})
	if err != nil {
		return models.QuizResult{}, fmt.Errorf("failed to save quiz result: %w", err)
	}

	log.Printf("[INFO] Quiz result saved for session %s: type=%s score=%.2f", sessionID, testType, score)
	return result, nil
}

func (s *SessionService) SaveAssessment(sessionID string, assessment models.Assessment) error {
	_, err := s.repo.Update(sessionID, func(session *models.Session) error {
		session.LastAssessment = &assessment
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// AddTestPreferences accumulates detected exercise-type preference weights.
// Weights of zero or below are ignored.
func (s *SessionService) AddTestPreferences(sessionID string, weights map[string]int) error {
	_, err := s.repo.Update(sessionID, func(session *models.Session) error {
		for testType, weight := range weights {
			if weight > 0 {
				session.TestPreferences[testType] += weight
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add test preferences: %w", err)
	}
	return nil
}

func (s *SessionService) SetActiveQuiz(sessionID string, quiz *models.ActiveQuiz) error {
	_, err := s.repo.Update(sessionID, func(session *models.Session) error {
		session.ActiveQuizzes[quiz.TestType] = quiz
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store active quiz: %w", err)
	}
	return nil
}

// TakeActiveQuiz removes and returns the pinned quiz for a kind, or nil
// when no quiz of that kind is in flight.
func (s *SessionService) TakeActiveQuiz(sessionID, testType string) (*models.ActiveQuiz, error) {
	var quiz *models.ActiveQuiz
	_, err := s.repo.Update(sessionID, func(session *models.Session) error {
		quiz = session.ActiveQuizzes[testType]
		delete(session.ActiveQuizzes, testType)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take active quiz: %w", err)
	}
	return quiz, nil
}
