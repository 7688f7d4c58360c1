package services

import (
	"context"
	"sync"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
)

// --- Mock implementations ---

// memberList implements driven.NameList over a plain set.
type memberList map[string]bool

func (m memberList) Contains(uri string) bool { return m[uri] }
func (m memberList) Len() int                 { return len(m) }

// mockBackup implements driven.JournalBackup for testing.
type mockBackup struct {
	mu        sync.Mutex
	snapshots int
	err       error
}

func (m *mockBackup) Snapshot(_ context.Context) (*driven.BackupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.snapshots++
	return &driven.BackupResult{Path: "/tmp/backup.jnl", Checksum: "abc", SizeBytes: 1}, nil
}

// mockRunStore implements driven.RunStore for testing.
type mockRunStore struct {
	mu    sync.Mutex
	saved []domain.RunReport
}

func (m *mockRunStore) Save(_ context.Context, report *domain.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *report)
	return nil
}

func (m *mockRunStore) Recent(_ context.Context, _ int) ([]domain.RunReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RunReport(nil), m.saved...), nil
}

func (m *mockRunStore) Close() error { return nil }

// fakeEntity is the mutable graph state of one entity in fakeStore.
type fakeEntity struct {
	ref   domain.EntityRef
	label string
	title string
	flag  string // "", "yes" or "no"
}

// fakeStore is a stateful in-memory driven.EntityStore. Writes behave like
// idempotent field replacements and mutations counts only effective changes,
// which is what the idempotence tests assert on.
type fakeStore struct {
	mu sync.Mutex

	entities    map[string]*fakeEntity
	order       []string
	workLinked  map[string]bool
	parents     map[string][]string
	titleLinks  map[string][]string // entity URI -> title URIs
	titleLabels map[string]string
	instLinks   map[string][]string // entity URI -> instantiation URIs
	instLabels  map[string]string
	fields      []domain.AuthorField // includes protected-type fields
	fieldOwner  map[string]string    // field URI -> instantiation URI

	mutations int
	calls     []string

	pingErr           error
	markAnonymisedErr error
	markProtectedErr  error
	redactTitlesErr   error
	authorFieldsErr   error
	redactFieldsErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities:    make(map[string]*fakeEntity),
		workLinked:  make(map[string]bool),
		parents:     make(map[string][]string),
		titleLinks:  make(map[string][]string),
		titleLabels: make(map[string]string),
		instLinks:   make(map[string][]string),
		instLabels:  make(map[string]string),
		fieldOwner:  make(map[string]string),
	}
}

func (f *fakeStore) addEntity(uri string, kind domain.EntityKind, graph, label string) {
	f.entities[uri] = &fakeEntity{
		ref:   domain.EntityRef{URI: uri, Kind: kind, Graph: graph},
		label: label,
		title: label,
	}
	f.order = append(f.order, uri)
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) set(target *string, value string) {
	if *target != value {
		*target = value
		f.mutations++
	}
}

func (f *fakeStore) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Ping")
	return f.pingErr
}

func (f *fakeStore) Entities(_ context.Context) ([]domain.EntityRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Entities")
	refs := make([]domain.EntityRef, 0, len(f.order))
	for _, uri := range f.order {
		refs = append(refs, f.entities[uri].ref)
	}
	return refs, nil
}

func (f *fakeStore) WorkLinked(_ context.Context, uris []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("WorkLinked")
	out := make(map[string]bool)
	for _, uri := range uris {
		if f.workLinked[uri] {
			out[uri] = true
		}
	}
	return out, nil
}

func (f *fakeStore) HierarchyParents(_ context.Context) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("HierarchyParents")
	return f.parents, nil
}

func (f *fakeStore) LinkedTitles(_ context.Context, uris []string) ([]domain.TitleLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LinkedTitles")
	var links []domain.TitleLink
	for _, uri := range uris {
		for _, titleURI := range f.titleLinks[uri] {
			links = append(links, domain.TitleLink{
				EntityURI: uri,
				TitleURI:  titleURI,
				Label:     f.titleLabels[titleURI],
			})
		}
	}
	return links, nil
}

func (f *fakeStore) Instantiations(_ context.Context, uris []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Instantiations")
	var insts []string
	for _, uri := range uris {
		insts = append(insts, f.instLinks[uri]...)
	}
	return insts, nil
}

func (f *fakeStore) AuthorFields(_ context.Context, uris []string) ([]domain.AuthorField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AuthorFields")
	if f.authorFieldsErr != nil {
		return nil, f.authorFieldsErr
	}
	owned := make(map[string]bool)
	for _, uri := range uris {
		for _, inst := range f.instLinks[uri] {
			owned[inst] = true
		}
		owned[uri] = true
	}
	var out []domain.AuthorField
	for _, field := range f.fields {
		if owned[f.fieldOwner[field.FieldURI]] && domain.AuthorFieldTypesToScan[field.Type] {
			out = append(out, field)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkAnonymised(_ context.Context, refs []domain.EntityRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MarkAnonymised")
	if f.markAnonymisedErr != nil {
		return f.markAnonymisedErr
	}
	for _, ref := range refs {
		e := f.entities[ref.URI]
		f.set(&e.label, domain.Placeholder)
		f.set(&e.title, domain.Placeholder)
		f.set(&e.flag, domain.RedactedYes)
	}
	return nil
}

func (f *fakeStore) MarkProtected(_ context.Context, refs []domain.EntityRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MarkProtected")
	if f.markProtectedErr != nil {
		return f.markProtectedErr
	}
	for _, ref := range refs {
		f.set(&f.entities[ref.URI].flag, domain.RedactedNo)
	}
	return nil
}

func (f *fakeStore) RedactTitleLabels(_ context.Context, titleURIs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RedactTitleLabels")
	if f.redactTitlesErr != nil {
		return f.redactTitlesErr
	}
	for _, uri := range titleURIs {
		if f.titleLabels[uri] != domain.Placeholder {
			f.titleLabels[uri] = domain.Placeholder
			f.mutations++
		}
	}
	return nil
}

func (f *fakeStore) RedactInstantiationLabels(_ context.Context, instURIs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RedactInstantiationLabels")
	for _, uri := range instURIs {
		if f.instLabels[uri] != domain.Placeholder {
			f.instLabels[uri] = domain.Placeholder
			f.mutations++
		}
	}
	return nil
}

func (f *fakeStore) RedactAuthorMetadata(_ context.Context, instURIs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RedactAuthorMetadata")
	owned := make(map[string]bool)
	for _, uri := range instURIs {
		owned[uri] = true
	}
	for i := range f.fields {
		field := &f.fields[i]
		if !owned[f.fieldOwner[field.FieldURI]] {
			continue
		}
		if !domain.IsAuthorField(field.Type) {
			continue
		}
		if field.Value != domain.Placeholder {
			field.Value = domain.Placeholder
			field.Label = domain.Placeholder
			f.mutations++
		}
	}
	return nil
}

func (f *fakeStore) RedactFields(_ context.Context, fields []domain.AuthorField) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RedactFields")
	if f.redactFieldsErr != nil {
		return f.redactFieldsErr
	}
	target := make(map[string]bool)
	for _, field := range fields {
		target[field.FieldURI] = true
	}
	for i := range f.fields {
		field := &f.fields[i]
		if target[field.FieldURI] && field.Value != domain.Placeholder {
			field.Value = domain.Placeholder
			field.Label = domain.Placeholder
			f.mutations++
		}
	}
	return nil
}

func (f *fakeStore) ProtectedFieldAnomalies(_ context.Context) ([]domain.FieldAnomaly, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ProtectedFieldAnomalies")
	counts := make(map[string]int)
	for _, field := range f.fields {
		if domain.IsProtectedField(field.Type) && field.Value == domain.Placeholder {
			counts[field.Type]++
		}
	}
	var anomalies []domain.FieldAnomaly
	for fieldType, count := range counts {
		anomalies = append(anomalies, domain.FieldAnomaly{Type: fieldType, Graph: "techmeta", Count: count})
	}
	return anomalies, nil
}

func (f *fakeStore) MisflaggedWorkEntities(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MisflaggedWorkEntities")
	var out []string
	for _, uri := range f.order {
		if f.workLinked[uri] && f.entities[uri].flag == domain.RedactedYes {
			out = append(out, uri)
		}
	}
	return out, nil
}

// Ensure fakeStore implements the interface.
var _ driven.EntityStore = (*fakeStore)(nil)
