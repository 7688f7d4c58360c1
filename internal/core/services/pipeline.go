package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/core/ports/driving"
	"github.com/teca-labs/arcveil/internal/logger"
)

// workLinkChunkSize bounds URIs per work-link membership read.
const workLinkChunkSize = 500

// Ensure PipelineService implements the interface.
var _ driving.Pipeline = (*PipelineService)(nil)

// PipelineService orchestrates one full privacy-protection run:
// backup, retrieval, classification, redaction, title consistency,
// author scan, protected-metadata consistency.
type PipelineService struct {
	store     driven.EntityStore
	backup    driven.JournalBackup
	blacklist driven.NameList
	whitelist driven.NameList
	runStore  driven.RunStore
	policy    domain.AuthorPolicy
	workers   int

	mu     sync.RWMutex
	status *driving.RunStatus
}

// NewPipelineService wires the pipeline. runStore may be nil, in which case
// runs are not recorded.
func NewPipelineService(
	store driven.EntityStore,
	backup driven.JournalBackup,
	blacklist driven.NameList,
	whitelist driven.NameList,
	runStore driven.RunStore,
	policy domain.AuthorPolicy,
	workers int,
) *PipelineService {
	if workers < 1 {
		workers = 8
	}
	return &PipelineService{
		store:     store,
		backup:    backup,
		blacklist: blacklist,
		whitelist: whitelist,
		runStore:  runStore,
		policy:    policy,
		workers:   workers,
	}
}

// Run executes the pipeline. It returns an error only for the two
// fatal-before-mutation conditions (backup integrity, store unreachable);
// everything afterwards degrades to per-entity reporting in the RunReport.
func (p *PipelineService) Run(ctx context.Context, opts driving.RunOptions) (*domain.RunReport, error) {
	if !p.begin() {
		return nil, domain.ErrRunInProgress
	}
	defer p.end()

	workers := opts.Workers
	if workers < 1 {
		workers = p.workers
	}

	report := &domain.RunReport{
		ID:            uuid.NewString(),
		StartedAt:     time.Now(),
		BackupSkipped: opts.SkipBackup,
	}

	logger.Section("BACKUP")
	if opts.SkipBackup {
		logger.Warn("Pre-run backup skipped by request")
	} else {
		result, err := p.backup.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		logger.Info("Backup verified: %s (%d bytes, sha256=%s)",
			result.Path, result.SizeBytes, result.Checksum)
	}

	if err := p.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	logger.Section("RETRIEVE")
	entities, err := p.store.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve entities: %w", err)
	}
	logger.Info("Retrieved %d entities", len(entities))

	uris := make([]string, len(entities))
	for i, e := range entities {
		uris[i] = e.URI
	}

	workLinked, err := p.fetchWorkLinks(ctx, uris)
	if err != nil {
		return nil, fmt.Errorf("work links: %w", err)
	}
	parents, err := p.store.HierarchyParents(ctx)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}

	logger.Section("CLASSIFY")
	p.setPhase("classify")
	classifier := NewClassifier(p.blacklist, p.whitelist)
	verdicts := classifier.Classify(entities, workLinked, parents)

	logger.Section("REDACT")
	p.setPhase("redact")
	redactor := NewRedactor(p.store, workers)
	stats, err := redactor.Redact(ctx, entities, verdicts, p.trackProgress)
	if err != nil {
		return nil, fmt.Errorf("redact: %w", err)
	}
	report.Anonymised = stats.Anonymised
	report.Protected = stats.Protected
	report.TitlesRedacted = stats.TitlesRedacted
	report.InstantiationsRedacted = stats.InstantiationsRedacted
	report.WriteFailures = stats.WriteFailures

	var anonymised, protected []string
	for _, e := range entities {
		if verdicts[e.URI] == domain.VerdictAnonymise {
			anonymised = append(anonymised, e.URI)
		} else {
			protected = append(protected, e.URI)
		}
	}

	verifier := NewVerifier(p.store)

	logger.Section("VERIFY TITLES")
	p.setPhase("verify-titles")
	repaired, err := verifier.VerifyTitles(ctx, anonymised)
	report.TitlesRepaired = repaired
	if err != nil {
		logger.Warn("Title consistency pass incomplete: %v", err)
		report.WriteFailures++
	}

	logger.Section("SCAN AUTHORS")
	p.setPhase("scan-authors")
	scanner := NewAuthorScanner(p.store, p.policy, workers)
	redactedAuthors, err := scanner.Scan(ctx, protected)
	report.AuthorsRedacted = redactedAuthors
	if err != nil {
		return nil, fmt.Errorf("author scan: %w", err)
	}

	logger.Section("VERIFY PROTECTED METADATA")
	p.setPhase("verify-protected")
	violations, err := verifier.VerifyProtectedFields(ctx)
	if err != nil {
		logger.Warn("Protected metadata pass incomplete: %v", err)
		report.WriteFailures++
	}
	report.ProtectedFieldAnomalies = violations

	misflagged, err := verifier.VerifyWorkProtection(ctx)
	if err != nil {
		logger.Warn("Work protection pass incomplete: %v", err)
		report.WriteFailures++
	}
	report.WorkLinkAnomalies = misflagged

	report.FinishedAt = time.Now()

	if p.runStore != nil {
		if err := p.runStore.Save(ctx, report); err != nil {
			logger.Warn("Failed to record run: %v", err)
		}
	}

	if report.Succeeded() {
		logger.Info("Run %s completed successfully in %s", report.ID, report.Duration())
	} else {
		logger.Error("Run %s completed with unresolved anomalies", report.ID)
	}
	return report, nil
}

// Status returns progress for the active run, if any.
func (p *PipelineService) Status(_ context.Context) (*driving.RunStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status == nil {
		return &driving.RunStatus{Running: false}, nil
	}
	// Return a copy to avoid race conditions
	return &driving.RunStatus{
		Running:           p.status.Running,
		Phase:             p.status.Phase,
		EntitiesProcessed: p.status.EntitiesProcessed,
		ErrorCount:        p.status.ErrorCount,
	}, nil
}

// fetchWorkLinks reads work-link membership in bounded chunks.
func (p *PipelineService) fetchWorkLinks(ctx context.Context, uris []string) (map[string]bool, error) {
	linked := make(map[string]bool)
	for start := 0; start < len(uris); start += workLinkChunkSize {
		end := min(start+workLinkChunkSize, len(uris))
		chunk, err := p.store.WorkLinked(ctx, uris[start:end])
		if err != nil {
			return nil, err
		}
		for uri, ok := range chunk {
			if ok {
				linked[uri] = true
			}
		}
	}
	logger.Info("Found %d work-linked entities", len(linked))
	return linked, nil
}

func (p *PipelineService) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != nil && p.status.Running {
		return false
	}
	p.status = &driving.RunStatus{Running: true, Phase: "backup"}
	return true
}

func (p *PipelineService) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
}

func (p *PipelineService) setPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Phase = phase
}

func (p *PipelineService) trackProgress(n, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.EntitiesProcessed += n
	p.status.ErrorCount += failed
}
