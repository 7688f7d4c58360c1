package services

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/logger"
)

// scanChunkSize bounds the protected entities per author-field read.
const scanChunkSize = 200

// AuthorScanner inspects the author-type fields of protected entities and
// their instantiations. Values neither authorised nor recognisably neutral
// are redacted. This is the only place a protect-verdict entity has any
// field mutated.
type AuthorScanner struct {
	store   driven.EntityStore
	policy  domain.AuthorPolicy
	workers int
}

// NewAuthorScanner creates a scanner with the given acceptance policy.
func NewAuthorScanner(store driven.EntityStore, policy domain.AuthorPolicy, workers int) *AuthorScanner {
	if workers < 1 {
		workers = 1
	}
	return &AuthorScanner{store: store, policy: policy, workers: workers}
}

// Scan checks all author fields of the given protected entities, redacting
// unacceptable values. Returns the number of fields redacted. Per-chunk
// failures are logged and skipped; the scan never aborts the run.
func (s *AuthorScanner) Scan(ctx context.Context, protectedURIs []string) (int, error) {
	var (
		mu    sync.Mutex
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(protectedURIs); start += scanChunkSize {
		end := min(start+scanChunkSize, len(protectedURIs))
		chunk := protectedURIs[start:end]

		g.Go(func() error {
			n, err := s.scanChunk(gctx, chunk)
			if err != nil {
				logger.Warn("Author scan chunk failed (%d entities): %v", len(chunk), err)
				return nil
			}
			mu.Lock()
			total += n
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	logger.Info("Author scan: %d unauthorised author fields redacted", total)
	return total, err
}

func (s *AuthorScanner) scanChunk(ctx context.Context, uris []string) (int, error) {
	fields, err := s.store.AuthorFields(ctx, uris)
	if err != nil {
		return 0, err
	}

	var toRedact []domain.AuthorField
	for _, f := range fields {
		// Already-redacted fields must not be re-counted, and must not
		// be mistaken for personal names.
		if f.Value == domain.Placeholder {
			continue
		}
		combined := strings.TrimSpace(f.Value + " " + f.Label)
		if s.policy.Acceptable(combined) {
			continue
		}
		logger.Debug("Redacting author field %s (type=%s)", f.FieldURI, f.Type)
		toRedact = append(toRedact, f)
	}
	if len(toRedact) == 0 {
		return 0, nil
	}

	if err := s.store.RedactFields(ctx, toRedact); err != nil {
		return 0, err
	}
	return len(toRedact), nil
}
