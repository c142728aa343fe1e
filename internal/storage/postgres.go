package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/constraint-warden/internal/core"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Postgres-backed Store.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// Upsert inserts or fully replaces the record for (projectID, commit key).
func (s *postgresStore) Upsert(ctx context.Context, projectID, commitHash string, rec core.StatusRecord) error {
	var result []byte
	if rec.Result != nil {
		var err error
		result, err = json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("failed to encode result payload: %w", err)
		}
	}

	query := `
		INSERT INTO constraint_status
			(project_id, commit_hash, is_queued, is_running, meta_inconsistent, has_violation, result, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, commit_hash) DO UPDATE SET
			is_queued         = EXCLUDED.is_queued,
			is_running        = EXCLUDED.is_running,
			meta_inconsistent = EXCLUDED.meta_inconsistent,
			has_violation     = EXCLUDED.has_violation,
			result            = EXCLUDED.result,
			updated_at        = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		projectID, core.CommitKey(commitHash),
		rec.IsQueued, rec.IsRunning, rec.MetaInconsistent, rec.HasViolation,
		result, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert status record: %w", err)
	}
	return nil
}

// Get retrieves the record for (projectID, commit key), or ErrNotFound.
func (s *postgresStore) Get(ctx context.Context, projectID, commitHash string) (*core.StatusRecord, error) {
	query := `
		SELECT is_queued, is_running, meta_inconsistent, has_violation, result
		FROM constraint_status
		WHERE project_id = $1 AND commit_hash = $2`

	row := s.db.QueryRowxContext(ctx, query, projectID, core.CommitKey(commitHash))

	var rec core.StatusRecord
	var result []byte
	err := row.Scan(&rec.IsQueued, &rec.IsRunning, &rec.MetaInconsistent, &rec.HasViolation, &result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read status record: %w", err)
	}
	if len(result) > 0 {
		rec.Result = json.RawMessage(result)
	}
	return &rec, nil
}
