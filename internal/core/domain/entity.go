package domain

// EntityKind distinguishes the two structural entity types in the archive.
type EntityKind string

const (
	// KindRecord is a leaf archival unit (a described file or item).
	KindRecord EntityKind = "Record"

	// KindRecordSet is a container archival unit (folder or collection).
	KindRecordSet EntityKind = "RecordSet"
)

// EntityRef identifies a Record or RecordSet and the named graph it lives in.
// All write operations are scoped to the entity's graph, so the graph travels
// with the reference.
type EntityRef struct {
	// URI is the entity identifier in the archive graph.
	URI string

	// Kind is Record or RecordSet.
	Kind EntityKind

	// Graph is the named structure graph holding the entity's statements.
	Graph string
}

// TitleLink connects an entity to one of its Title entities together with
// the title's current label. Labels for titles live in the enrichment graph,
// not the structure graphs.
type TitleLink struct {
	// EntityURI is the Record or RecordSet the title belongs to.
	EntityURI string

	// TitleURI is the Title entity.
	TitleURI string

	// Label is the title's current human-readable label.
	Label string
}

// AuthorField is one author-type technical-metadata field value, found on an
// entity directly or on one of its instantiations.
type AuthorField struct {
	// FieldURI identifies the technical-metadata node.
	FieldURI string

	// Graph is the technical-metadata graph holding the field.
	Graph string

	// Type is the field's type name (e.g. "Creator", "dc:creator").
	Type string

	// Value is the field's current value.
	Value string

	// Label is the field's current label, redacted together with the value.
	Label string
}

// FieldAnomaly reports protected technical-metadata fields found carrying
// the anonymisation placeholder. These are never auto-repaired: the original
// value cannot be reconstructed.
type FieldAnomaly struct {
	// Type is the protected field type that was overwritten.
	Type string

	// Graph is the technical-metadata graph where the violation was found.
	Graph string

	// Count is the number of violating fields of this type in this graph.
	Count int
}
