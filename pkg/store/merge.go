package store

import "xscraper/pkg/models"

// Merge returns existing followed by every record of incoming whose ID is
// not yet present, in incoming order. Records without an ID are skipped and
// an ID already present is never overwritten. Neither input is modified.
func Merge(existing, incoming []models.Record) []models.Record {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]models.Record, 0, len(existing)+len(incoming))

	for _, r := range existing {
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range incoming {
		if !r.Valid() {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
	}

	return merged
}
