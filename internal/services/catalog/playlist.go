package catalog

import (
	"sort"
	"strings"

	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/inventory"
)

// FromCatalog renders a playlist from a catalog document: one
// library-relative path per line, newest episode first, trailing newline
// when non-empty. Dates are YYYY-MM-DD so string order is date order;
// undated entries sink to the bottom, ties break on title.
func FromCatalog(doc *models.CatalogDocument) string {
	entries := make([]models.CatalogEntry, 0, len(doc.ItemsByKey))
	for _, entry := range doc.ItemsByKey {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Date == "" && b.Date != "":
			return false
		case a.Date != "" && b.Date == "":
			return true
		case a.Date != b.Date:
			return a.Date > b.Date
		default:
			return a.Title < b.Title
		}
	})

	var sb strings.Builder
	for _, entry := range entries {
		if entry.File == "" {
			continue
		}
		sb.WriteString(entry.File)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FromDirectory renders a playlist from a raw directory listing. Entries
// arrive mtime-ascending from the scanner; newestFirst flips them, limit
// truncates after ordering.
func FromDirectory(files []inventory.FileEntry, prefix string, newestFirst bool, limit int) string {
	ordered := make([]inventory.FileEntry, len(files))
	copy(ordered, files)

	if newestFirst {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	var sb strings.Builder
	for _, file := range ordered {
		sb.WriteString(prefix)
		sb.WriteByte('/')
		sb.WriteString(file.Filename)
		sb.WriteByte('\n')
	}
	return sb.String()
}
