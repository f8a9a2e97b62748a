package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shokouhi/HootieChat/models"

	_ "github.com/lib/pq"
)

// PostgresSessionRepository keeps each session as a JSONB document.
// Update holds a row lock for the duration of fn, which gives the same
// per-session atomicity as the in-memory store.
type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(databaseURL string) (*PostgresSessionRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSessionRepository{db: db}, nil
}

func (r *PostgresSessionRepository) Get(sessionID string) (*models.Session, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	query := `
		SELECT doc
		FROM hootie.sessions
		WHERE id = $1`

	var doc []byte
	err := r.db.QueryRow(query, sessionID).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return r.createSession(sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return unmarshalSession(sessionID, doc)
}

func (r *PostgresSessionRepository) createSession(sessionID string) (*models.Session, error) {
	session := newSession(sessionID)
	doc, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		INSERT INTO hootie.sessions (id, doc)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.Exec(query, sessionID, doc); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &session, nil
}

func (r *PostgresSessionRepository) Update(sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRow(`SELECT doc FROM hootie.sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&doc)

	var session *models.Session
	switch err {
	case nil:
		session, err = unmarshalSession(sessionID, doc)
		if err != nil {
			return nil, err
		}
	case sql.ErrNoRows:
		s := newSession(sessionID)
		session = &s
		seed, marshalErr := json.Marshal(session)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal session: %w", marshalErr)
		}
		if _, err := tx.Exec(`INSERT INTO hootie.sessions (id, doc) VALUES ($1, $2)`, sessionID, seed); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if _, err := tx.Exec(`UPDATE hootie.sessions SET doc = $1, updated_at = NOW() WHERE id = $2`, updated, sessionID); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session update: %w", err)
	}

	return session, nil
}

func (r *PostgresSessionRepository) Close() error {
	return r.db.Close()
}

func unmarshalSession(sessionID string, doc []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(doc, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session.ID = sessionID
	if session.TestPreferences == nil {
		session.TestPreferences = map[string]int{}
	}
	if session.ActiveQuizzes == nil {
		session.ActiveQuizzes = map[string]*models.ActiveQuiz{}
	}
	return &session, nil
}
