package driven

import (
	"context"

	"github.com/teca-labs/arcveil/internal/core/domain"
)

// EntityStore issues read and write operations against the archive graph
// store. Reads are batched; writes are expressed as field replacements
// (delete-old-value, insert-new-value) and are idempotent, so re-applying
// the same verdict twice yields the same final state.
//
// The store is expected to provide read consistency sufficient to see its
// own prior writes within one run, and atomic-enough delete+insert per
// statement group to avoid a visible half-written field.
type EntityStore interface {
	// Ping verifies the store answers queries. Used as a preflight after
	// backup, before any mutation.
	Ping(ctx context.Context) error

	// Entities returns every Record and RecordSet in the configured
	// structure graphs.
	Entities(ctx context.Context) ([]domain.EntityRef, error)

	// WorkLinked reports which of the given entities are linked to a
	// Work. Work-linkage forces protection regardless of the name lists.
	WorkLinked(ctx context.Context, uris []string) (map[string]bool, error)

	// HierarchyParents returns the full child-to-parents map for the
	// "included in" relation, fetched once per run so ancestor checks
	// stay in memory.
	HierarchyParents(ctx context.Context) (map[string][]string, error)

	// LinkedTitles returns the Title entities linked to the given
	// entities together with their current labels.
	LinkedTitles(ctx context.Context, uris []string) ([]domain.TitleLink, error)

	// Instantiations returns the instantiation URIs of the given entities.
	Instantiations(ctx context.Context, uris []string) ([]string, error)

	// AuthorFields returns the author-type technical-metadata fields of
	// the given entities, including fields on their instantiations.
	AuthorFields(ctx context.Context, uris []string) ([]domain.AuthorField, error)

	// MarkAnonymised replaces label and title with the placeholder and
	// sets the redaction flag to yes for each entity, scoped to the
	// entity's graph.
	MarkAnonymised(ctx context.Context, refs []domain.EntityRef) error

	// MarkProtected sets the redaction flag to no for each entity.
	// No other field of a protected entity is touched by this call.
	MarkProtected(ctx context.Context, refs []domain.EntityRef) error

	// RedactTitleLabels rewrites the given Title labels to the
	// placeholder. Title labels live in the enrichment graph; the
	// original structure graphs are not touched by this call.
	RedactTitleLabels(ctx context.Context, titleURIs []string) error

	// RedactInstantiationLabels rewrites instantiation labels to the
	// placeholder.
	RedactInstantiationLabels(ctx context.Context, instURIs []string) error

	// RedactAuthorMetadata rewrites the author-type technical-metadata
	// fields of the given instantiations to the placeholder. Only field
	// types in the author whitelist are touched.
	RedactAuthorMetadata(ctx context.Context, instURIs []string) error

	// RedactFields rewrites specific technical-metadata field nodes to
	// the placeholder. Used by the author scanner for unacceptable
	// author values on protected entities.
	RedactFields(ctx context.Context, fields []domain.AuthorField) error

	// ProtectedFieldAnomalies scans the technical-metadata graphs for
	// protected field types carrying the placeholder value.
	ProtectedFieldAnomalies(ctx context.Context) ([]domain.FieldAnomaly, error)

	// MisflaggedWorkEntities returns work-linked entities whose redaction
	// flag is set to yes. Such entities violate the classifier precedence
	// and fail the run.
	MisflaggedWorkEntities(ctx context.Context) ([]string, error)
}
