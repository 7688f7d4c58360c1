package driven

import "context"

// BackupResult describes a verified journal snapshot.
type BackupResult struct {
	// Path is the location of the verified copy.
	Path string

	// Checksum is the hex SHA-256 of both source and copy.
	Checksum string

	// SizeBytes is the journal size at snapshot time.
	SizeBytes int64
}

// JournalBackup snapshots the store's persisted journal before any mutation.
// A failed snapshot is the one condition that aborts a run pre-emptively.
type JournalBackup interface {
	// Snapshot copies the journal, verifies the copy's checksum against
	// the source and prunes old backups. On checksum mismatch the copy
	// is removed and domain.ErrBackupIntegrity is returned.
	Snapshot(ctx context.Context) (*BackupResult, error)
}
