package sparql

import (
	"sort"
	"strings"
)

// escapeLiteral renders a Go string as a quoted SPARQL string literal.
func escapeLiteral(value string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return `"` + r.Replace(strings.TrimSpace(value)) + `"`
}

// uriRefs renders a URI list as whitespace-separated IRI references for a
// VALUES clause.
func uriRefs(uris []string) string {
	var b strings.Builder
	for i, uri := range uris {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('<')
		b.WriteString(uri)
		b.WriteByte('>')
	}
	return b.String()
}

// literalList renders a set of names as a sorted, comma-separated literal
// list for a FILTER ... IN clause. Sorting keeps queries reproducible.
func literalList(names map[string]bool) string {
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	parts := make([]string, len(sorted))
	for i, name := range sorted {
		parts[i] = escapeLiteral(name)
	}
	return strings.Join(parts, ", ")
}

// chunkStrings splits a slice into chunks of at most size elements.
func chunkStrings(items []string, size int) [][]string {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
