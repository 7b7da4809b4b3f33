// Package archive keeps the bounded, newest-first list of published records and its JSON file.
package archive

import "github.com/stageside/stageside/pkg/domain"

// Merge prepends fresh records which are not in the archive yet and truncates the result to limit.
// The first fresh record ends up at position 0. Duplicates among fresh records are dropped,
// first one wins. Returns the new archive and the added records which survived truncation,
// in archive order. The existing archive is not modified.
func Merge(existing domain.Archive, fresh []domain.ArticleRecord, limit int) (merged domain.Archive, added []domain.ArticleRecord) {
	seen := existing.Links()
	for _, rec := range fresh {
		if rec.Link == "" {
			continue
		}
		if _, ok := seen[rec.Link]; ok {
			continue
		}
		seen[rec.Link] = struct{}{}
		added = append(added, rec)
	}

	merged = make(domain.Archive, 0, len(added)+len(existing))
	merged = append(merged, added...)
	merged = append(merged, existing...)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	if len(added) > len(merged) {
		added = added[:len(merged)]
	}
	return merged, added
}

// Take returns at most n records, n <= 0 means all of them
func Take(records []domain.ArticleRecord, n int) []domain.ArticleRecord {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[:n]
}
