package domain

// Verdict is the binary privacy classification assigned to an entity for one
// run. It is derived, never stored: every run recomputes it from the name
// lists, the work-link relation and the hierarchy.
type Verdict int

const (
	// VerdictProtect keeps the entity's descriptive fields intact.
	// Protect is the default when no rule matches.
	VerdictProtect Verdict = iota

	// VerdictAnonymise overwrites the entity's label, title and
	// author-type metadata with the placeholder.
	VerdictAnonymise
)

// String returns the verdict name for logs and reports.
func (v Verdict) String() string {
	if v == VerdictAnonymise {
		return "anonymise"
	}
	return "protect"
}

// Placeholder is the fixed replacement string written into any anonymised
// field. The protected-metadata consistency pass also uses it as the marker
// for detecting illegal overwrites.
const Placeholder = "Anonymized information"

// Redaction flag values persisted on every entity after a successful run.
const (
	// RedactedYes marks an anonymised entity.
	RedactedYes = "yes"

	// RedactedNo marks a protected entity.
	RedactedNo = "no"
)
