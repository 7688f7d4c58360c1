package domain

import "time"

// RunReport accumulates the outcome of one pipeline run. It feeds the final
// summary, the run history store and the process exit code.
type RunReport struct {
	// ID is the unique run identifier.
	ID string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// BackupSkipped records whether the pre-run backup was skipped.
	BackupSkipped bool

	// Anonymised and Protected count entities per verdict.
	Anonymised int
	Protected  int

	// TitlesRedacted counts Title labels rewritten by the redactor.
	TitlesRedacted int

	// InstantiationsRedacted counts instantiation labels rewritten.
	InstantiationsRedacted int

	// TitlesRepaired counts title labels fixed by the consistency
	// verifier after the redactor had already run. Repairs are warnings,
	// not failures.
	TitlesRepaired int

	// AuthorsRedacted counts author fields redacted on protected
	// entities by the author scanner.
	AuthorsRedacted int

	// WriteFailures counts entities whose writes failed after retries.
	// They stay eligible for repair on the next run.
	WriteFailures int

	// ProtectedFieldAnomalies counts protected technical-metadata fields
	// found carrying the placeholder. Unresolvable; any non-zero count
	// fails the run.
	ProtectedFieldAnomalies int

	// WorkLinkAnomalies counts work-linked entities found with the
	// redaction flag set to yes. Also fatal to the run's success status.
	WorkLinkAnomalies int
}

// Succeeded reports whether the run finished with no unresolved anomaly.
// Repaired titles and per-entity write failures do not fail a run; protected
// field overwrites and mis-flagged work-linked entities do.
func (r *RunReport) Succeeded() bool {
	return r.ProtectedFieldAnomalies == 0 && r.WorkLinkAnomalies == 0
}

// Duration returns the elapsed run time.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
