package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/maillist/internal/core"
	"github.com/JonMunkholm/maillist/internal/logging"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 1000
)

// handleAuditLog lists recent audit entries. Query parameters: limit,
// action (upload, export or reset) and format=csv for a download.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", defaultAuditLimit), maxAuditLimit)

	entries, err := s.service.AuditLog(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if action := core.AuditAction(r.URL.Query().Get("action")); action != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Action == action {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}

	if r.URL.Query().Get("format") == "csv" {
		s.writeAuditCSV(w, r, entries)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// writeAuditCSV streams entries as a CSV download.
func (s *Server) writeAuditCSV(w http.ResponseWriter, r *http.Request, entries []core.AuditEntry) {
	filename := fmt.Sprintf("audit_log_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", core.CSVContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	cw := csv.NewWriter(w)
	rows := [][]string{{
		"ID", "Timestamp", "Action", "Session", "Run", "File",
		"Outcome", "Error Code", "Total", "Invalid", "Duplicates",
		"Records", "IP Address",
	}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.CreatedAt.Format(time.DateTime),
			string(e.Action),
			e.SessionID,
			e.RunID,
			e.FileName,
			e.Outcome,
			e.ErrorCode,
			strconv.Itoa(e.TotalEmails),
			strconv.Itoa(e.InvalidEmails),
			strconv.Itoa(e.DuplicatesRemoved),
			strconv.Itoa(e.RecordCount),
			e.IPAddress,
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		logging.FromContext(r.Context()).Error("audit csv write failed", "error", err)
	}
}
