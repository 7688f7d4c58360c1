package domain

// Technical-metadata field policy.
//
// Redaction is a closed whitelist: only the enumerated author-type fields are
// ever rewritten. Everything else is left untouched regardless of verdict,
// and the protected set below is additionally asserted post-hoc by the
// consistency verifier.

// AuthorFieldTypes are the field type names rewritten to the placeholder on
// anonymised entities.
var AuthorFieldTypes = map[string]bool{
	"Creator":         true,
	"meta:last-author": true,
	"dc:creator":      true,
	"Author":          true,
	"LastModifiedBy":  true,
	"dcterms:creator": true,
	"meta:author":     true,
	"LastAuthor":      true,
}

// AuthorFieldTypesToScan are the field type names the author scanner checks
// on protected entities. A subset of AuthorFieldTypes: the remaining aliases
// never carry personal names in practice.
var AuthorFieldTypesToScan = map[string]bool{
	"Creator":         true,
	"dc:creator":      true,
	"Author":          true,
	"LastModifiedBy":  true,
	"meta:last-author": true,
}

// ProtectedFieldTypes are field type names that must never be overwritten,
// under any verdict. The verifier treats a placeholder value on any of these
// as a hard anomaly.
var ProtectedFieldTypes = map[string]bool{
	"FileSize":            true,
	"File Size":           true,
	"Software":            true,
	"CreateDate":          true,
	"MediaCreateDate":     true,
	"MediaModifyDate":     true,
	"FileModifyDate":      true,
	"FileAccessDate":      true,
	"FileInodeChangeDate": true,
	"FilePermissions":     true,
	"FileType":            true,
	"FileTypeExtension":   true,
	"MIMEType":            true,
	"Content-Type":        true,
	"Content-Length":      true,
	"dcterms:created":     true,
	"dcterms:modified":    true,
	"hierarchyDepth":      true,
	"file_type":           true,
	"st_size":             true,
	"st_mtime":            true,
	"st_atime":            true,
	"st_ctime":            true,
	"st_blksize":          true,
	"st_blocks":           true,
	"st_dev":              true,
	"st_gid":              true,
	"st_ino":              true,
	"st_mode":             true,
	"st_nlink":            true,
	"st_uid":              true,
}

// IsAuthorField reports whether a field type is subject to redaction.
func IsAuthorField(fieldType string) bool {
	return AuthorFieldTypes[fieldType]
}

// IsProtectedField reports whether a field type must never be rewritten.
func IsProtectedField(fieldType string) bool {
	return ProtectedFieldTypes[fieldType]
}

// FieldTypeNames returns the keys of a field type set in unspecified order,
// for building store queries.
func FieldTypeNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	return names
}
