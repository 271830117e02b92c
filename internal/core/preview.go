package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/JonMunkholm/maillist/internal/logging"
)

// PreviewSummary contains the summary counts for an upload preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	TotalEmails     int `json:"totalEmails"`
	InvalidEmails   int `json:"invalidEmails"`
	DuplicateInFile int `json:"duplicateInFile"`
	AlreadyInList   int `json:"alreadyInList"`
	NewEmails       int `json:"newEmails"`
}

// InvalidPreview is one rejected cell.
type InvalidPreview struct {
	LineNumber int    `json:"lineNumber"`
	Value      string `json:"value"`
}

// DuplicatePreview lists the lines sharing one address.
type DuplicatePreview struct {
	Email       string `json:"email"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse is the read-only analysis of an upload.
type PreviewResponse struct {
	FileName         string             `json:"fileName"`
	Summary          PreviewSummary     `json:"summary"`
	NewSamples       []EmailRecord      `json:"newSamples"`
	InvalidSamples   []InvalidPreview   `json:"invalidSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// Sample limits
const (
	maxNewSamples       = 10
	maxInvalidSamples   = 20
	maxDuplicateSamples = 10
)

// PreviewUpload reports what an upload would do to the session without
// changing it. Counts ignore the processing options: invalid addresses and
// in-file duplicates are reported whether or not a run would drop them.
// A preview never waits for an upload slot; it fails with ErrTooManyUploads
// when none is free.
func (s *Service) PreviewUpload(ctx context.Context, req UploadRequest) (*PreviewResponse, error) {
	start := s.now()
	log := logging.ForRun(ctx, req.SessionID, uuid.NewString(), req.FileName)

	if !s.limiter.TryAcquire() {
		return nil, ErrTooManyUploads
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	sess, err := s.store.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	table, col, err := s.readTable(ctx, req, log)
	if err != nil {
		return nil, err
	}

	records, stats, err := NormalizeRecords(table, col)
	if err != nil {
		return nil, err
	}

	resp := analyzeRecords(records, sess.Records)
	resp.FileName = req.FileName
	resp.Summary.TotalRows = len(table) - headerRows
	resp.Summary.TotalEmails = stats.TotalEmails
	resp.Summary.InvalidEmails = stats.InvalidEmails
	resp.ProcessingTimeMs = s.now().Sub(start).Milliseconds()

	log.Info("upload previewed",
		"total", stats.TotalEmails,
		"new", resp.Summary.NewEmails,
		"already_in_list", resp.Summary.AlreadyInList,
	)
	return resp, nil
}

// analyzeRecords classifies normalized records against the working set.
func analyzeRecords(records, workingSet []EmailRecord) *PreviewResponse {
	resp := &PreviewResponse{
		NewSamples:       []EmailRecord{},
		InvalidSamples:   []InvalidPreview{},
		DuplicateSamples: []DuplicatePreview{},
	}

	existing := make(map[string]struct{}, len(workingSet))
	for _, rec := range workingSet {
		existing[rec.Email] = struct{}{}
	}

	lines := make(map[string][]int)
	var order []string
	for _, rec := range records {
		if !rec.IsValid {
			if len(resp.InvalidSamples) < maxInvalidSamples {
				resp.InvalidSamples = append(resp.InvalidSamples, InvalidPreview{LineNumber: rec.OriginalRow, Value: rec.Email})
			}
			continue
		}

		if _, seen := lines[rec.Email]; !seen {
			order = append(order, rec.Email)
			if _, ok := existing[rec.Email]; ok {
				resp.Summary.AlreadyInList++
			} else {
				resp.Summary.NewEmails++
				if len(resp.NewSamples) < maxNewSamples {
					resp.NewSamples = append(resp.NewSamples, rec)
				}
			}
		} else {
			resp.Summary.DuplicateInFile++
		}
		lines[rec.Email] = append(lines[rec.Email], rec.OriginalRow)
	}

	for _, email := range order {
		if len(resp.DuplicateSamples) == maxDuplicateSamples {
			break
		}
		if rows := lines[email]; len(rows) > 1 {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{Email: email, LineNumbers: rows})
		}
	}
	return resp
}
