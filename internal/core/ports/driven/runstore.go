package driven

import (
	"context"

	"github.com/teca-labs/arcveil/internal/core/domain"
)

// RunStore persists per-run reports for the history command.
// Backed by SQLite.
type RunStore interface {
	// Save records a completed run.
	Save(ctx context.Context, report *domain.RunReport) error

	// Recent returns up to limit reports, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunReport, error)

	// Close releases the underlying storage.
	Close() error
}
