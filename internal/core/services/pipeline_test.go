package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/core/ports/driving"
)

func buildPipelineFixture() *fakeStore {
	store := newFakeStore()
	// X blacklisted, Y included in X, W work-linked, P plain protected.
	store.addEntity("X", domain.KindRecordSet, "g1", "Private correspondence")
	store.addEntity("Y", domain.KindRecord, "g1", "Letter 1998")
	store.addEntity("W", domain.KindRecord, "g1", "Novel chapter")
	store.addEntity("P", domain.KindRecord, "g2", "Invoice")
	store.parents = map[string][]string{"Y": {"X"}}
	store.workLinked["W"] = true

	store.titleLinks["Y"] = []string{"tY"}
	store.titleLabels["tY"] = "Letter 1998"

	store.instLinks["Y"] = []string{"iY"}
	store.instLinks["P"] = []string{"iP"}
	store.fields = []domain.AuthorField{
		{FieldURI: "fY", Graph: "tm", Type: "Creator", Value: "Jane Doe"},
		{FieldURI: "fP1", Graph: "tm", Type: "Creator", Value: "John Smith"},
		{FieldURI: "fP2", Graph: "tm", Type: "Creator", Value: "admin"},
		{FieldURI: "fP3", Graph: "tm", Type: "FileSize", Value: "4096"},
	}
	store.fieldOwner["fY"] = "iY"
	store.fieldOwner["fP1"] = "iP"
	store.fieldOwner["fP2"] = "iP"
	store.fieldOwner["fP3"] = "iP"
	return store
}

func newTestPipeline(store *fakeStore, backup *mockBackup, runs *mockRunStore) *PipelineService {
	policy := domain.AuthorPolicy{NeutralPatterns: domain.DefaultNeutralPatterns}
	var runStore driven.RunStore
	if runs != nil {
		runStore = runs
	}
	return NewPipelineService(store, backup,
		memberList{"X": true}, memberList{}, runStore, policy, 2)
}

func TestPipeline_FullRun(t *testing.T) {
	store := buildPipelineFixture()
	backup := &mockBackup{}
	runs := &mockRunStore{}

	report, err := newTestPipeline(store, backup, runs).
		Run(context.Background(), driving.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, backup.snapshots)
	assert.True(t, report.Succeeded())
	assert.Equal(t, 2, report.Anonymised, "X plus Y via ancestry")
	assert.Equal(t, 2, report.Protected, "work-linked W plus default P")
	assert.Equal(t, 1, report.AuthorsRedacted, "John Smith on protected P")
	assert.Zero(t, report.ProtectedFieldAnomalies)
	assert.Zero(t, report.WorkLinkAnomalies)

	// Invariant I2: no entity left with an unset flag.
	for uri, e := range store.entities {
		assert.NotEmpty(t, e.flag, "entity %s has unset redaction flag", uri)
	}
	// Invariant I3: titles of anonymised entities carry the placeholder.
	assert.Equal(t, domain.Placeholder, store.titleLabels["tY"])
	// Invariant I4: protected technical field untouched.
	assert.Equal(t, "4096", store.fields[3].Value)
	// Neutral author on protected entity untouched.
	assert.Equal(t, "admin", store.fields[2].Value)

	// Run was recorded.
	require.Len(t, runs.saved, 1)
	assert.Equal(t, report.ID, runs.saved[0].ID)
}

func TestPipeline_BackupFailureAbortsBeforeMutation(t *testing.T) {
	store := buildPipelineFixture()
	backup := &mockBackup{err: domain.ErrBackupIntegrity}

	report, err := newTestPipeline(store, backup, nil).
		Run(context.Background(), driving.RunOptions{})

	require.ErrorIs(t, err, domain.ErrBackupIntegrity)
	assert.Nil(t, report)
	assert.Zero(t, store.mutations, "no graph mutation may happen after a failed backup")
	assert.Empty(t, store.calls, "store must not even be read")
}

func TestPipeline_SkipBackup(t *testing.T) {
	store := buildPipelineFixture()
	backup := &mockBackup{err: domain.ErrJournalNotFound}

	report, err := newTestPipeline(store, backup, nil).
		Run(context.Background(), driving.RunOptions{SkipBackup: true})

	require.NoError(t, err, "skipping backup must bypass the guardian entirely")
	assert.True(t, report.BackupSkipped)
	assert.Zero(t, backup.snapshots)
}

func TestPipeline_StoreUnavailable(t *testing.T) {
	store := buildPipelineFixture()
	store.pingErr = assert.AnError

	_, err := newTestPipeline(store, &mockBackup{}, nil).
		Run(context.Background(), driving.RunOptions{})

	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Zero(t, store.mutations)
}

func TestPipeline_Idempotent(t *testing.T) {
	store := buildPipelineFixture()
	pipeline := newTestPipeline(store, &mockBackup{}, nil)

	first, err := pipeline.Run(context.Background(), driving.RunOptions{SkipBackup: true})
	require.NoError(t, err)
	require.True(t, first.Succeeded())

	afterFirst := store.mutations
	assert.Positive(t, afterFirst)

	second, err := pipeline.Run(context.Background(), driving.RunOptions{SkipBackup: true})
	require.NoError(t, err)
	assert.True(t, second.Succeeded())
	assert.Equal(t, afterFirst, store.mutations,
		"second run must perform zero effective field changes")
	assert.Equal(t, first.Anonymised, second.Anonymised)
	assert.Zero(t, second.AuthorsRedacted)
}

func TestPipeline_ProtectedFieldViolationFailsRun(t *testing.T) {
	store := buildPipelineFixture()
	// Simulate an upstream bug: a protected field already carries the
	// placeholder before the run.
	store.fields = append(store.fields, domain.AuthorField{
		FieldURI: "bad", Graph: "tm", Type: "st_mtime", Value: domain.Placeholder,
	})

	report, err := newTestPipeline(store, &mockBackup{}, nil).
		Run(context.Background(), driving.RunOptions{SkipBackup: true})
	require.NoError(t, err, "anomalies fail the report, not the process")

	assert.False(t, report.Succeeded())
	assert.Equal(t, 1, report.ProtectedFieldAnomalies)
}

func TestPipeline_StatusIdle(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), &mockBackup{}, nil)

	status, err := pipeline.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
}
