package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedNameList indicates a name-list row that is neither
	// empty nor a valid URI. A missing file is NOT an error; a malformed
	// row is a configuration error and aborts before backup.
	ErrMalformedNameList = errors.New("malformed name list")

	// ErrJournalNotFound indicates the store's persisted journal file
	// could not be located for backup.
	ErrJournalNotFound = errors.New("journal file not found")

	// ErrBackupIntegrity indicates the backup copy's checksum did not
	// match the source. The copy is discarded and the run aborts before
	// any mutation (fail-closed).
	ErrBackupIntegrity = errors.New("backup integrity check failed")

	// ErrInsufficientSpace indicates the backup directory lacks room for
	// a journal copy plus the configured safety margin.
	ErrInsufficientSpace = errors.New("insufficient disk space for backup")

	// ErrStoreUnavailable indicates the graph store did not answer the
	// connectivity preflight.
	ErrStoreUnavailable = errors.New("graph store unavailable")

	// ErrRunInProgress indicates a pipeline run is already active.
	ErrRunInProgress = errors.New("run already in progress")
)
