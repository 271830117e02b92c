package core

// pipeline.go sequences the processing steps for one run.
//
// The order is fixed and each step consumes the output of the previous one:
//  1. Normalize rows into records (counters are taken here)
//  2. Drop invalid records (RemoveInvalid)
//  3. Merge with the prior working set (when it is non-empty)
//  4. Collapse duplicates (RemoveDuplicates, adds DuplicatesRemoved)
//  5. Sort by address (SortAlphabetically)
//
// TotalEmails and InvalidEmails describe the batch as normalized and are not
// recomputed after filtering or merging.

import "fmt"

// ProcessEmails runs the pipeline over data using the email column col.
// existing is the caller's working set; it is read, never modified.
func ProcessEmails(data Table, col int, opts ProcessingOptions, existing []EmailRecord) (*PipelineResult, error) {
	records, stats, err := NormalizeRecords(data, col)
	if err != nil {
		return nil, err
	}

	if opts.RemoveInvalid {
		records = filterValid(records)
	}

	mergeDropped := 0
	if len(existing) > 0 {
		incoming := len(records)
		records = MergeRecords(existing, records)
		mergeDropped = len(existing) + incoming - len(records)
	}

	if opts.RemoveDuplicates {
		var removed int
		records, removed = Deduplicate(records)
		stats.DuplicatesRemoved = removed
	}

	if opts.SortAlphabetically {
		records = SortRecords(records)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w (%d invalid)", ErrNoValidEmails, stats.InvalidEmails)
	}

	return &PipelineResult{
		Records:      records,
		Stats:        stats,
		MergeDropped: mergeDropped,
	}, nil
}

// AccumulateRecords folds a run's output into the session working set. The
// first run's output becomes the working set as is; later runs keep the
// prior records first and append the addresses not already present.
func AccumulateRecords(workingSet, runOutput []EmailRecord) []EmailRecord {
	if len(workingSet) == 0 {
		return runOutput
	}
	return MergeRecords(workingSet, runOutput)
}

func filterValid(records []EmailRecord) []EmailRecord {
	out := make([]EmailRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsValid {
			out = append(out, rec)
		}
	}
	return out
}
