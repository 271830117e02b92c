package core

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortRecords returns a copy of records ordered by Email using root-locale
// collation. The sort is stable; records with equal addresses keep their
// relative order.
func SortRecords(records []EmailRecord) []EmailRecord {
	sorted := slices.Clone(records)

	// A Collator keeps internal buffers and is not safe for concurrent use.
	c := collate.New(language.Und)
	slices.SortStableFunc(sorted, func(a, b EmailRecord) int {
		return c.CompareString(a.Email, b.Email)
	})

	return sorted
}
