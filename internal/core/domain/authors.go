package domain

import "strings"

// AuthorPolicy decides whether an author-type field value on a protected
// entity may keep its original value. "Protect the record" must not be read
// as "protect every name inside its metadata": values that are neither
// authorised nor recognisably non-personal are redacted anyway.
type AuthorPolicy struct {
	// Authorised are author names allowed to remain visible, matched
	// case-insensitively as substrings (archival metadata rarely agrees
	// on one spelling of a name).
	Authorised []string

	// NeutralPatterns match non-personal values such as software names
	// and system accounts, case-insensitive substring match.
	NeutralPatterns []string
}

// DefaultNeutralPatterns covers generic software and system-account values
// commonly found in extracted office-document metadata.
var DefaultNeutralPatterns = []string{
	"admin", "administrator", "user", "utente", "owner",
	"microsoft", "windows", "win", "mac", "system", "desktop",
	"computer", "pc-", "writer", "disco", "sconosciuto",
	"Adobe InDesign", "QuarkXPress", "Office 98", "Kirtas Technologies",
	"BlackBerry Limited dc:creator",
}

// Acceptable reports whether an author value may stay untouched on a
// protected entity. Empty values are acceptable: there is nothing to hide.
func (p AuthorPolicy) Acceptable(value string) bool {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return true
	}
	for _, name := range p.Authorised {
		if strings.Contains(text, strings.ToLower(name)) {
			return true
		}
	}
	for _, pattern := range p.NeutralPatterns {
		if strings.Contains(text, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
