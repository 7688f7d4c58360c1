package services

import (
	"context"
	"fmt"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/logger"
)

// verifyChunkSize bounds the URIs per title-consistency read.
const verifyChunkSize = 500

// Verifier re-scans the mutated graph after redaction. Title mismatches are
// repaired in place and logged as warnings; protected-field overwrites are
// reported and never auto-repaired, because the original value cannot be
// reconstructed.
type Verifier struct {
	store driven.EntityStore
}

// NewVerifier creates a verifier over the store.
func NewVerifier(store driven.EntityStore) *Verifier {
	return &Verifier{store: store}
}

// VerifyTitles asserts every Title linked to an anonymised entity carries
// the placeholder label, fixing any that do not. Returns the number of
// repaired titles. This catches titles linked after the redactor's own
// title rewrite, or races between enrichment-graph and base-graph reads.
func (v *Verifier) VerifyTitles(ctx context.Context, anonymisedURIs []string) (int, error) {
	repaired := 0
	for start := 0; start < len(anonymisedURIs); start += verifyChunkSize {
		end := min(start+verifyChunkSize, len(anonymisedURIs))
		chunk := anonymisedURIs[start:end]

		titles, err := v.store.LinkedTitles(ctx, chunk)
		if err != nil {
			return repaired, fmt.Errorf("linked titles: %w", err)
		}

		var stale []string
		for _, t := range titles {
			if t.Label != domain.Placeholder {
				stale = append(stale, t.TitleURI)
			}
		}
		if len(stale) == 0 {
			continue
		}

		logger.Warn("Title consistency: %d stale labels found, repairing", len(stale))
		if err := v.store.RedactTitleLabels(ctx, stale); err != nil {
			return repaired, fmt.Errorf("repair titles: %w", err)
		}
		repaired += len(stale)
	}

	if repaired == 0 {
		logger.Info("Title consistency: all titles already consistent")
	}
	return repaired, nil
}

// VerifyProtectedFields scans for protected technical-metadata field types
// carrying the placeholder. Any hit means the field whitelist was bypassed
// somewhere; it is reported, never fixed.
func (v *Verifier) VerifyProtectedFields(ctx context.Context) (int, error) {
	anomalies, err := v.store.ProtectedFieldAnomalies(ctx)
	if err != nil {
		return 0, fmt.Errorf("protected field scan: %w", err)
	}

	total := 0
	for _, a := range anomalies {
		total += a.Count
		logger.Error("Protected metadata overwritten: type=%s graph=%s count=%d",
			a.Type, a.Graph, a.Count)
	}
	if total == 0 {
		logger.Info("Protected metadata: no violations found")
	}
	return total, nil
}

// VerifyWorkProtection asserts no work-linked entity ended up with the
// redaction flag set to yes. Violations fail the run.
func (v *Verifier) VerifyWorkProtection(ctx context.Context) (int, error) {
	uris, err := v.store.MisflaggedWorkEntities(ctx)
	if err != nil {
		return 0, fmt.Errorf("work protection scan: %w", err)
	}
	for _, uri := range uris {
		logger.Error("Work-linked entity flagged as anonymised: %s", uri)
	}
	if len(uris) == 0 {
		logger.Info("Work protection: all work-linked entities protected")
	}
	return len(uris), nil
}
