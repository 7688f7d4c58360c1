package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teca-labs/arcveil/internal/core/domain"
)

func buildRedactorFixture() *fakeStore {
	store := newFakeStore()
	store.addEntity("r1", domain.KindRecord, "g1", "Letter to a friend")
	store.addEntity("r2", domain.KindRecord, "g1", "Tax declaration")
	store.addEntity("rs1", domain.KindRecordSet, "g2", "Private folder")

	store.titleLinks["r1"] = []string{"t1"}
	store.titleLabels["t1"] = "Letter to a friend"

	store.instLinks["r1"] = []string{"i1"}
	store.instLabels["i1"] = "letter.doc"

	store.fields = []domain.AuthorField{
		{FieldURI: "f1", Graph: "techmeta", Type: "Creator", Value: "Jane Doe"},
		{FieldURI: "f2", Graph: "techmeta", Type: "FileSize", Value: "2048"},
	}
	store.fieldOwner["f1"] = "i1"
	store.fieldOwner["f2"] = "i1"
	return store
}

func TestRedactor_AnonymiseRewritesWhitelistedFieldsOnly(t *testing.T) {
	store := buildRedactorFixture()
	verdicts := map[string]domain.Verdict{
		"r1":  domain.VerdictAnonymise,
		"r2":  domain.VerdictProtect,
		"rs1": domain.VerdictProtect,
	}

	entities, err := store.Entities(context.Background())
	require.NoError(t, err)

	stats, err := NewRedactor(store, 2).Redact(context.Background(), entities, verdicts, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Anonymised)
	assert.Equal(t, 2, stats.Protected)
	assert.Equal(t, 1, stats.TitlesRedacted)
	assert.Equal(t, 1, stats.InstantiationsRedacted)
	assert.Zero(t, stats.WriteFailures)

	// Anonymised entity: label, title, flag, linked title, instantiation.
	assert.Equal(t, domain.Placeholder, store.entities["r1"].label)
	assert.Equal(t, domain.Placeholder, store.entities["r1"].title)
	assert.Equal(t, domain.RedactedYes, store.entities["r1"].flag)
	assert.Equal(t, domain.Placeholder, store.titleLabels["t1"])
	assert.Equal(t, domain.Placeholder, store.instLabels["i1"])

	// Author field rewritten, protected field untouched (closed whitelist).
	assert.Equal(t, domain.Placeholder, store.fields[0].Value)
	assert.Equal(t, "2048", store.fields[1].Value)

	// Protected entities keep their labels, only the flag changes.
	assert.Equal(t, "Tax declaration", store.entities["r2"].label)
	assert.Equal(t, domain.RedactedNo, store.entities["r2"].flag)
	assert.Equal(t, domain.RedactedNo, store.entities["rs1"].flag)
}

func TestRedactor_WriteOrderWithinEntity(t *testing.T) {
	store := buildRedactorFixture()
	verdicts := map[string]domain.Verdict{"r1": domain.VerdictAnonymise}

	_, err := NewRedactor(store, 1).Redact(context.Background(),
		[]domain.EntityRef{{URI: "r1", Kind: domain.KindRecord, Graph: "g1"}}, verdicts, nil)
	require.NoError(t, err)

	// Base fields before title rewrite before metadata rewrite: the
	// title-consistency pass assumes base fields are already correct.
	positions := make(map[string]int)
	for i, call := range store.calls {
		if _, seen := positions[call]; !seen {
			positions[call] = i
		}
	}
	assert.Less(t, positions["MarkAnonymised"], positions["RedactTitleLabels"])
	assert.Less(t, positions["RedactTitleLabels"], positions["RedactAuthorMetadata"])
}

func TestRedactor_BatchFailureIsSkippedNotFatal(t *testing.T) {
	store := buildRedactorFixture()
	store.markAnonymisedErr = assert.AnError

	verdicts := map[string]domain.Verdict{
		"r1": domain.VerdictAnonymise,
		"r2": domain.VerdictProtect,
	}
	entities := []domain.EntityRef{
		{URI: "r1", Kind: domain.KindRecord, Graph: "g1"},
		{URI: "r2", Kind: domain.KindRecord, Graph: "g1"},
	}

	stats, err := NewRedactor(store, 1).Redact(context.Background(), entities, verdicts, nil)
	require.NoError(t, err, "per-batch failures must not abort the pass")

	assert.Equal(t, 1, stats.WriteFailures)
	assert.Zero(t, stats.Anonymised)
	// The protected batch still went through.
	assert.Equal(t, 1, stats.Protected)
	assert.Equal(t, "Letter to a friend", store.entities["r1"].label, "failed entity left for next run")
}

func TestRedactor_Idempotent(t *testing.T) {
	store := buildRedactorFixture()
	verdicts := map[string]domain.Verdict{
		"r1":  domain.VerdictAnonymise,
		"r2":  domain.VerdictProtect,
		"rs1": domain.VerdictProtect,
	}
	entities, err := store.Entities(context.Background())
	require.NoError(t, err)

	redactor := NewRedactor(store, 2)
	_, err = redactor.Redact(context.Background(), entities, verdicts, nil)
	require.NoError(t, err)

	afterFirst := store.mutations
	assert.Positive(t, afterFirst)

	_, err = redactor.Redact(context.Background(), entities, verdicts, nil)
	require.NoError(t, err)
	assert.Equal(t, afterFirst, store.mutations, "second pass must perform zero effective changes")
}

func TestBatchByGraph(t *testing.T) {
	refs := []domain.EntityRef{
		{URI: "a", Graph: "g1"},
		{URI: "b", Graph: "g2"},
		{URI: "c", Graph: "g1"},
		{URI: "d", Graph: "g1"},
	}

	batches := batchByGraph(refs, 2)
	require.Len(t, batches, 3)
	for _, batch := range batches {
		graph := batch[0].Graph
		for _, ref := range batch {
			assert.Equal(t, graph, ref.Graph, "batches must never mix graphs")
		}
		assert.LessOrEqual(t, len(batch), 2)
	}
}
