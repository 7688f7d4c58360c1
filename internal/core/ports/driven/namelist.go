package driven

// NameList answers membership queries for one externally supplied name set.
// Lists are loaded fresh each run; the classifier depends on this lookup
// capability, never on a concrete file format.
type NameList interface {
	// Contains reports whether the URI is a member of the list.
	Contains(uri string) bool

	// Len returns the number of entries, for logging.
	Len() int
}
