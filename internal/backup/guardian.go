// Package backup implements the pre-run journal snapshot discipline:
// copy, verify, prune. The graph mutation that follows has no dry-run and
// no undo, so a run may only start once a checksum-verified copy of the
// store's persisted journal exists.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/logger"
)

// Ensure Guardian implements the interface.
var _ driven.JournalBackup = (*Guardian)(nil)

const backupPrefix = "journal_backup_"

// Guardian snapshots the journal file into a backup directory, verifies the
// copy and keeps only the most recent copies.
type Guardian struct {
	journalPath string
	backupDir   string
	retain      int
	minFree     int64 // extra free bytes required beyond the journal size
}

// Option configures a Guardian.
type Option func(*Guardian)

// WithRetention sets how many backups to keep. Defaults to 5.
func WithRetention(n int) Option {
	return func(g *Guardian) {
		if n > 0 {
			g.retain = n
		}
	}
}

// WithMinFreeSpace sets the extra free space margin required before
// copying. Defaults to 2 GiB.
func WithMinFreeSpace(bytes int64) Option {
	return func(g *Guardian) {
		if bytes >= 0 {
			g.minFree = bytes
		}
	}
}

// NewGuardian creates a guardian for the given journal file.
func NewGuardian(journalPath, backupDir string, opts ...Option) *Guardian {
	g := &Guardian{
		journalPath: journalPath,
		backupDir:   backupDir,
		retain:      5,
		minFree:     2 << 30,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot copies the journal, verifies the copy's SHA-256 against the
// source, prunes old backups and returns the verified copy's location.
// On checksum mismatch the copy is removed and domain.ErrBackupIntegrity
// returned: the run must not proceed on an unverified safety net.
func (g *Guardian) Snapshot(ctx context.Context) (*driven.BackupResult, error) {
	info, err := os.Stat(g.journalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrJournalNotFound, g.journalPath)
	}

	if err := os.MkdirAll(g.backupDir, 0700); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	if err := g.checkFreeSpace(info.Size()); err != nil {
		return nil, err
	}

	sourceSum, err := hashFile(ctx, g.journalPath)
	if err != nil {
		return nil, fmt.Errorf("hash journal: %w", err)
	}

	target := filepath.Join(g.backupDir,
		fmt.Sprintf("%s%s.jnl", backupPrefix, time.Now().Format("20060102_150405")))

	logger.Info("Copying journal %s -> %s (%d bytes)", g.journalPath, target, info.Size())
	if err := copyFile(ctx, g.journalPath, target); err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("copy journal: %w", err)
	}

	copySum, err := hashFile(ctx, target)
	if err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("hash backup: %w", err)
	}
	if copySum != sourceSum {
		os.Remove(target)
		return nil, fmt.Errorf("%w: source %s != copy %s", domain.ErrBackupIntegrity, sourceSum, copySum)
	}

	if err := g.prune(); err != nil {
		// A failed prune never invalidates the fresh verified backup.
		logger.Warn("Backup prune failed: %v", err)
	}

	return &driven.BackupResult{
		Path:      target,
		Checksum:  copySum,
		SizeBytes: info.Size(),
	}, nil
}

// Restore copies a verified backup over the journal. The current journal is
// first snapshotted to a safety copy so a restore is itself survivable.
func (g *Guardian) Restore(ctx context.Context, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup not readable: %w", err)
	}

	// Verify the backup before letting it replace anything.
	backupSum, err := hashFile(ctx, backupPath)
	if err != nil {
		return fmt.Errorf("hash backup: %w", err)
	}

	if _, err := os.Stat(g.journalPath); err == nil {
		safety := g.journalPath + ".pre-restore"
		if err := copyFile(ctx, g.journalPath, safety); err != nil {
			return fmt.Errorf("safety copy: %w", err)
		}
		logger.Info("Current journal preserved at %s", safety)
	}

	if err := copyFile(ctx, backupPath, g.journalPath); err != nil {
		return fmt.Errorf("restore copy: %w", err)
	}
	restoredSum, err := hashFile(ctx, g.journalPath)
	if err != nil {
		return fmt.Errorf("hash restored journal: %w", err)
	}
	if restoredSum != backupSum {
		return fmt.Errorf("%w: restored journal does not match backup", domain.ErrBackupIntegrity)
	}

	logger.Info("Journal restored from %s (sha256=%s)", backupPath, restoredSum)
	return nil
}

// Backups lists existing backup files, newest first.
func (g *Guardian) Backups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(g.backupDir, backupPrefix+"*.jnl"))
	if err != nil {
		return nil, err
	}
	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// prune removes the oldest backups beyond the retention count.
func (g *Guardian) prune() error {
	backups, err := g.Backups()
	if err != nil {
		return err
	}
	for _, old := range backups[min(g.retain, len(backups)):] {
		logger.Info("Pruning old backup %s", old)
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}

func (g *Guardian) checkFreeSpace(journalSize int64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(g.backupDir, &stat); err != nil {
		// Best effort: an unreadable statfs must not block the backup.
		logger.Warn("Cannot determine free space for %s: %v", g.backupDir, err)
		return nil
	}
	free := int64(stat.Bavail) * int64(stat.Bsize)
	if free < journalSize+g.minFree {
		return fmt.Errorf("%w: %d bytes free, need %d", domain.ErrInsufficientSpace,
			free, journalSize+g.minFree)
	}
	return nil
}

func hashFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
