package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/maillist/internal/core"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	readinessTimeout = 2 * time.Second
)

// OptionsResponse describes what an upload accepts.
type OptionsResponse struct {
	Defaults    core.ProcessingOptions   `json:"defaults"`
	MaxFileSize int64                    `json:"maxFileSize"`
	Formats     []core.ExportFormat      `json:"exportFormats"`
	Uploads     core.UploadLimiterStatus `json:"uploads"`
}

// SessionResponse is a session without its records.
type SessionResponse struct {
	ID          string           `json:"id"`
	RecordCount int              `json:"recordCount"`
	RunCount    int              `json:"runCount"`
	LastRun     *core.RunSummary `json:"lastRun,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// RecordsResponse is one page of a session's working set.
type RecordsResponse struct {
	Records  []core.EmailRecord `json:"records"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady runs every registered readiness check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": results})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OptionsResponse{
		Defaults:    s.service.DefaultOptions(),
		MaxFileSize: s.service.MaxFileSize(),
		Formats:     []core.ExportFormat{core.FormatXLSX, core.FormatCSV},
		Uploads:     s.service.LimiterStatus(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.NewSession(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		ID:          sess.ID,
		RecordCount: len(sess.Records),
		RunCount:    sess.RunCount,
		LastRun:     sess.LastRun,
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRecords pages through the working set with ?page and ?pageSize.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Records(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	page := parseIntParam(r, "page", 1)
	pageSize := min(parseIntParam(r, "pageSize", defaultPageSize), maxPageSize)

	start := min((page-1)*pageSize, len(records))
	end := min(start+pageSize, len(records))

	writeJSON(w, http.StatusOK, RecordsResponse{
		Records:  records[start:end],
		Total:    len(records),
		Page:     page,
		PageSize: pageSize,
	})
}
