// Package storage persists per-commit status records.
package storage

import (
	"context"
	"errors"

	"github.com/sevigo/constraint-warden/internal/core"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("status record not found")

// Store defines the interface for the status store. Records are keyed by
// (projectID, commit hash); Upsert creates or fully replaces a record, last
// write wins. Implementations normalize the commit hash via core.CommitKey,
// so callers may pass the hash with or without the leading marker.
type Store interface {
	Upsert(ctx context.Context, projectID, commitHash string, rec core.StatusRecord) error
	Get(ctx context.Context, projectID, commitHash string) (*core.StatusRecord, error)
}
