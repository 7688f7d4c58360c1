package services

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/logger"
)

// redactBatchSize bounds the number of entities per store write.
const redactBatchSize = 200

// Redactor applies the verdict map to the graph. Anonymised entities get
// placeholder labels, titles and flags plus redacted author metadata;
// protected entities only get their redaction flag cleared. Every write is
// an idempotent field replacement, so a failed batch can be retried by
// simply re-running the pipeline.
type Redactor struct {
	store   driven.EntityStore
	workers int
}

// NewRedactor creates a redactor issuing writes through the store with at
// most workers concurrent batches.
func NewRedactor(store driven.EntityStore, workers int) *Redactor {
	if workers < 1 {
		workers = 1
	}
	return &Redactor{store: store, workers: workers}
}

// RedactStats counts the effects of one redaction pass.
type RedactStats struct {
	mu sync.Mutex

	Anonymised             int
	Protected              int
	TitlesRedacted         int
	InstantiationsRedacted int
	WriteFailures          int
}

func (s *RedactStats) add(f func(*RedactStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

// Redact rewrites all entities according to the verdict map. A write failure
// for one batch is recorded and skipped; it never aborts the pass. Returns
// an error only when the context is cancelled.
func (r *Redactor) Redact(
	ctx context.Context,
	entities []domain.EntityRef,
	verdicts map[string]domain.Verdict,
	progress func(n, failed int),
) (*RedactStats, error) {
	var anonymise, protect []domain.EntityRef
	for _, e := range entities {
		if verdicts[e.URI] == domain.VerdictAnonymise {
			anonymise = append(anonymise, e)
		} else {
			protect = append(protect, e)
		}
	}

	stats := &RedactStats{}

	// Batches are partitioned by entity, so no two workers ever write the
	// same entity's fields. Across entities no ordering is guaranteed.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, batch := range batchByGraph(anonymise, redactBatchSize) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.anonymiseBatch(gctx, batch, stats, progress)
			return nil
		})
	}

	for _, batch := range batchByGraph(protect, redactBatchSize) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.store.MarkProtected(gctx, batch); err != nil {
				logger.Warn("Mark protected batch failed (%d entities): %v", len(batch), err)
				stats.add(func(s *RedactStats) { s.WriteFailures += len(batch) })
				if progress != nil {
					progress(0, len(batch))
				}
				return nil
			}
			stats.add(func(s *RedactStats) { s.Protected += len(batch) })
			if progress != nil {
				progress(len(batch), 0)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// anonymiseBatch performs the full anonymisation sequence for one batch.
// Within the batch the write order is fixed: base fields first, then linked
// titles, then instantiation labels, then author metadata, because the
// title-consistency check assumes base fields are already correct.
func (r *Redactor) anonymiseBatch(
	ctx context.Context,
	batch []domain.EntityRef,
	stats *RedactStats,
	progress func(n, failed int),
) {
	if err := r.store.MarkAnonymised(ctx, batch); err != nil {
		logger.Warn("Anonymise batch failed (%d entities): %v", len(batch), err)
		stats.add(func(s *RedactStats) { s.WriteFailures += len(batch) })
		if progress != nil {
			progress(0, len(batch))
		}
		return
	}
	stats.add(func(s *RedactStats) { s.Anonymised += len(batch) })

	uris := make([]string, len(batch))
	for i, e := range batch {
		uris[i] = e.URI
	}

	titles, err := r.store.LinkedTitles(ctx, uris)
	if err != nil {
		logger.Warn("Linked titles lookup failed: %v", err)
		stats.add(func(s *RedactStats) { s.WriteFailures++ })
	} else if len(titles) > 0 {
		var titleURIs []string
		for _, t := range titles {
			if t.Label != domain.Placeholder {
				titleURIs = append(titleURIs, t.TitleURI)
			}
		}
		if len(titleURIs) > 0 {
			if err := r.store.RedactTitleLabels(ctx, titleURIs); err != nil {
				logger.Warn("Title redaction failed (%d titles): %v", len(titleURIs), err)
				stats.add(func(s *RedactStats) { s.WriteFailures++ })
			} else {
				stats.add(func(s *RedactStats) { s.TitlesRedacted += len(titleURIs) })
			}
		}
	}

	insts, err := r.store.Instantiations(ctx, uris)
	if err != nil {
		logger.Warn("Instantiation lookup failed: %v", err)
		stats.add(func(s *RedactStats) { s.WriteFailures++ })
	} else if len(insts) > 0 {
		if err := r.store.RedactInstantiationLabels(ctx, insts); err != nil {
			logger.Warn("Instantiation redaction failed (%d): %v", len(insts), err)
			stats.add(func(s *RedactStats) { s.WriteFailures++ })
		} else {
			stats.add(func(s *RedactStats) { s.InstantiationsRedacted += len(insts) })
		}
		if err := r.store.RedactAuthorMetadata(ctx, insts); err != nil {
			logger.Warn("Author metadata redaction failed: %v", err)
			stats.add(func(s *RedactStats) { s.WriteFailures++ })
		}
	}

	if progress != nil {
		progress(len(batch), 0)
	}
}

// batchByGraph splits refs into batches of at most size entities, never
// mixing graphs: every store write is scoped to one named graph.
func batchByGraph(refs []domain.EntityRef, size int) [][]domain.EntityRef {
	byGraph := make(map[string][]domain.EntityRef)
	var order []string
	for _, ref := range refs {
		if _, ok := byGraph[ref.Graph]; !ok {
			order = append(order, ref.Graph)
		}
		byGraph[ref.Graph] = append(byGraph[ref.Graph], ref)
	}

	var batches [][]domain.EntityRef
	for _, graph := range order {
		group := byGraph[graph]
		for start := 0; start < len(group); start += size {
			end := min(start+size, len(group))
			batches = append(batches, group[start:end])
		}
	}
	return batches
}
