package keys

import (
	"fmt"
	"strings"

	"snpedia/internal/models"
)

var unsafe = strings.NewReplacer(" ", "-", "/", "_", "\\", "_", "?", "_", "#", "_")

// sanitizeKey replaces characters that are awkward in object keys. Case is
// kept: page titles differing only in case are different pages.
func sanitizeKey(s string) string {
	return unsafe.Replace(strings.TrimSpace(s))
}

// Record returns the canonical object key for a stored record.
func Record(r models.Record) string {
	return fmt.Sprintf("raw_data/%s.json", sanitizeKey(r.Name))
}
