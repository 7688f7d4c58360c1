// Package namelist loads the externally supplied name sets (entities to
// anonymise, entities to protect) from tabular files into URI sets.
// A missing file is an empty list; a malformed row is a configuration error.
package namelist

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/teca-labs/arcveil/internal/core/domain"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/logger"
)

// Ensure List implements the interface.
var _ driven.NameList = (*List)(nil)

// List is an immutable URI set loaded from one name-list file.
type List struct {
	uris map[string]bool
}

// Load reads a name-list file: one URI per row in the first column, bare or
// angle-bracket delimited. Extra columns are ignored. A missing file yields
// an empty list; a row whose first column is neither empty nor a URI returns
// domain.ErrMalformedNameList.
func Load(path string) (*List, error) {
	uris := make(map[string]bool)
	if path == "" {
		return &List{uris: uris}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Name list %s not found, treating as empty", path)
			return &List{uris: uris}, nil
		}
		return nil, fmt.Errorf("open name list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may have trailing annotation columns
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedNameList, path, err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		uri, ok := normaliseURI(cell)
		if !ok {
			// The header row is tolerated; anything else is a broken list
			// and aborting beats silently under-anonymising.
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: %s row %d: %q", domain.ErrMalformedNameList, path, i+1, cell)
		}
		uris[uri] = true
	}

	logger.Info("Loaded %d URIs from %s", len(uris), path)
	return &List{uris: uris}, nil
}

// normaliseURI strips optional angle-bracket delimiters and validates the
// scheme.
func normaliseURI(cell string) (string, bool) {
	if strings.HasPrefix(cell, "<") && strings.HasSuffix(cell, ">") {
		cell = strings.TrimSpace(cell[1 : len(cell)-1])
	}
	if strings.HasPrefix(cell, "http://") || strings.HasPrefix(cell, "https://") {
		return cell, true
	}
	return "", false
}

// Contains reports whether the URI is a member of the list.
func (l *List) Contains(uri string) bool {
	return l.uris[uri]
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.uris)
}
