package core

// MergeRecords returns a new slice holding existing followed by every
// incoming record whose address is not already present. Membership is exact
// string equality on Email and includes records admitted earlier in the same
// merge. Neither input is modified.
//
// Dropped records are not counted anywhere in ProcessingStats; callers that
// need the number compare lengths.
func MergeRecords(existing, incoming []EmailRecord) []EmailRecord {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]EmailRecord, 0, len(existing)+len(incoming))

	for _, rec := range existing {
		seen[rec.Email] = struct{}{}
		merged = append(merged, rec)
	}

	for _, rec := range incoming {
		if _, ok := seen[rec.Email]; ok {
			continue
		}
		seen[rec.Email] = struct{}{}
		merged = append(merged, rec)
	}

	return merged
}

// Deduplicate collapses repeated valid addresses. Every occurrence of a valid
// address seen more than once is flagged IsDuplicate; the first occurrence is
// kept and the rest are dropped. A flag set by an earlier pass is kept, so a
// second pass over the output changes nothing. Invalid records are never
// flagged or dropped. It returns the new slice and the number of dropped
// records.
func Deduplicate(records []EmailRecord) ([]EmailRecord, int) {
	counts := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.IsValid {
			counts[rec.Email]++
		}
	}

	seen := make(map[string]struct{}, len(counts))
	out := make([]EmailRecord, 0, len(records))
	removed := 0

	for _, rec := range records {
		if !rec.IsValid {
			out = append(out, rec)
			continue
		}

		if counts[rec.Email] > 1 {
			rec.IsDuplicate = true
		}

		if _, ok := seen[rec.Email]; ok {
			removed++
			continue
		}
		seen[rec.Email] = struct{}{}
		out = append(out, rec)
	}

	return out, removed
}
