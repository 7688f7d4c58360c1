package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teca-labs/arcveil/internal/backup"
)

func configureGuardian(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	journal := filepath.Join(root, "journal.jnl")
	require.NoError(t, os.WriteFile(journal, []byte("journal content"), 0600))

	guardian = backup.NewGuardian(journal, filepath.Join(root, "backups"),
		backup.WithMinFreeSpace(0))
	t.Cleanup(func() { guardian = nil })
	return root
}

func TestBackupCmd_WritesVerifiedSnapshot(t *testing.T) {
	root := configureGuardian(t)

	out, err := execute(t, "backup")

	assert.NoError(t, err)
	assert.Contains(t, out, "Backup written to")
	assert.Contains(t, out, "sha256=")

	matches, globErr := filepath.Glob(filepath.Join(root, "backups", "journal_backup_*.jnl"))
	require.NoError(t, globErr)
	assert.Len(t, matches, 1)
}

func TestBackupListCmd_Empty(t *testing.T) {
	configureGuardian(t)

	out, err := execute(t, "backup", "list")

	assert.NoError(t, err)
	assert.Contains(t, out, "No backups found.")
}

func TestRestoreCmd_RequiresArgument(t *testing.T) {
	configureGuardian(t)

	_, err := execute(t, "restore")

	assert.Error(t, err)
}

func TestBackupCmd_NotConfigured(t *testing.T) {
	guardian = nil

	_, err := execute(t, "backup")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
