package db

import (
	"fmt"
	"sync"

	"github.com/shokouhi/HootieChat/models"
)

// SessionRepository stores tutoring sessions. Update runs fn on the session
// under that session's lock, so read-modify-write sequences on one session
// are atomic but sessions never contend with each other.
type SessionRepository interface {
	Get(sessionID string) (*models.Session, error)
	Update(sessionID string, fn func(*models.Session) error) (*models.Session, error)
	Close() error
}

type sessionEntry struct {
	mu      sync.Mutex
	session models.Session
}

type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*sessionEntry)}
}

func (r *MemorySessionRepository) entry(sessionID string) *sessionEntry {
	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sessionID]; ok {
		return e
	}
	e = &sessionEntry{session: newSession(sessionID)}
	r.sessions[sessionID] = e
	return e
}

func (r *MemorySessionRepository) Get(sessionID string) (*models.Session, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	e := r.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneSession(&e.session), nil
}

func (r *MemorySessionRepository) Update(sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	e := r.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(&e.session); err != nil {
		return nil, err
	}
	return cloneSession(&e.session), nil
}

func (r *MemorySessionRepository) Close() error {
	return nil
}

func newSession(sessionID string) models.Session {
	return models.Session{
		ID:              sessionID,
		History:         []models.ChatMessage{},
		QuizResults:     []models.QuizResult{},
		TestPreferences: map[string]int{},
		ActiveQuizzes:   map[string]*models.ActiveQuiz{},
	}
}

// cloneSession returns a copy callers can hold outside the session lock.
func cloneSession(s *models.Session) *models.Session {
	clone := *s

	clone.History = append([]models.ChatMessage(nil), s.History...)
	clone.QuizResults = make([]models.QuizResult, len(s.QuizResults))
	for i, qr := range s.QuizResults {
		clone.QuizResults[i] = qr
		if qr.Context != nil {
			ctx := *qr.Context
			ctx.Words = append([]string(nil), qr.Context.Words...)
			clone.QuizResults[i].Context = &ctx
		}
	}

	clone.TestPreferences = make(map[string]int, len(s.TestPreferences))
	for k, v := range s.TestPreferences {
		clone.TestPreferences[k] = v
	}

	clone.ActiveQuizzes = make(map[string]*models.ActiveQuiz, len(s.ActiveQuizzes))
	for k, v := range s.ActiveQuizzes {
		if v == nil {
			continue
		}
		aq := *v
		aq.Pairs = append([]models.WordPair(nil), v.Pairs...)
		clone.ActiveQuizzes[k] = &aq
	}

	if s.LastAssessment != nil {
		assessment := *s.LastAssessment
		clone.LastAssessment = &assessment
	}

	return &clone
}

func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}
