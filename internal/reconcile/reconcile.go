// Package reconcile maps the extractor's free-text category suggestions onto
// the user's actual category set.
package reconcile

import (
	"strings"

	"tallytalk/internal/models"
)

// Match resolves a suggested label to a category ID, or nil when nothing
// matches. Matching is a case-insensitive substring check in either direction
// (label contains name, or name contains label), restricted to categories of
// the candidate's type. First match in list order wins; callers pass the list
// in its display order (defaults first, then alphabetical), which also serves
// as the tie-break for overlapping names like "Food" vs "Fast Food".
func Match(suggested string, txType models.TransactionType, categories []models.Category) *string {
	label := strings.ToLower(strings.TrimSpace(suggested))
	if label == "" {
		return nil
	}

	for i := range categories {
		cat := &categories[i]
		if string(cat.Type) != string(txType) {
			continue
		}
		name := strings.ToLower(cat.Name)
		if strings.Contains(name, label) || strings.Contains(label, name) {
			id := cat.ID
			return &id
		}
	}
	return nil
}
