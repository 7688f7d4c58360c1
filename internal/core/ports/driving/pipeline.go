package driving

import (
	"context"

	"github.com/teca-labs/arcveil/internal/core/domain"
)

// Pipeline runs the classification-and-redaction engine end to end:
// backup, retrieval, classification, redaction, consistency verification,
// author scan, protected-metadata verification.
type Pipeline interface {
	// Run executes one full pipeline pass and returns its report.
	// A non-nil error means the run aborted before mutating anything
	// (backup or configuration failure); per-entity failures and
	// anomalies are reported in the RunReport instead.
	Run(ctx context.Context, opts RunOptions) (*domain.RunReport, error)

	// Status returns progress for the active run, if any.
	Status(ctx context.Context) (*RunStatus, error)
}

// RunOptions control one pipeline run.
type RunOptions struct {
	// SkipBackup disables the pre-run journal snapshot.
	SkipBackup bool

	// Workers bounds concurrent store batches. Zero means the
	// configured default.
	Workers int
}

// RunStatus represents the current state of a pipeline run.
type RunStatus struct {
	// Running indicates if a run is currently in progress.
	Running bool

	// Phase is the pipeline phase currently executing.
	Phase string

	// EntitiesProcessed is the count of entities written so far.
	EntitiesProcessed int

	// ErrorCount is the number of per-entity failures so far.
	ErrorCount int
}
