package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trialchat/internal/domain"
)

// PostgresStore persists per-turn interaction records for compliance and
// offline analysis. The in-memory pipeline never reads from it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// LogTurn writes one completed turn to the interactions table.
func (s *PostgresStore) LogTurn(ctx context.Context, turn domain.TurnLog) error {
	query := `INSERT INTO interactions
	          (session_id, user_message, assistant_message, source_used, retrieved_count,
	           is_clarification, is_unknown, is_safety_refusal, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		turn.SessionID, turn.UserMessage, turn.AssistantMessage, turn.SourceUsed,
		turn.RetrievedCount, turn.IsClarification, turn.IsUnknown, turn.IsSafetyRefusal,
		turn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// ListTurns returns the most recent interaction records, newest first.
// Filter by session id with a non-empty sessionID.
func (s *PostgresStore) ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.TurnLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT session_id, user_message, assistant_message, source_used, retrieved_count,
	                 is_clarification, is_unknown, is_safety_refusal, created_at
	          FROM interactions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = $1`
		args = append(args, sessionID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.TurnLog
	for rows.Next() {
		var t domain.TurnLog
		if err := rows.Scan(
			&t.SessionID, &t.UserMessage, &t.AssistantMessage, &t.SourceUsed, &t.RetrievedCount,
			&t.IsClarification, &t.IsUnknown, &t.IsSafetyRefusal, &t.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
