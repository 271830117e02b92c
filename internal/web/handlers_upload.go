package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/maillist/internal/core"
)

// handleUpload runs one file against a session. Optional form fields
// removeDuplicates, removeInvalid and sortAlphabetically override the
// defaults.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	req, file, err := s.readUpload(w, r, chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer file.Close()
	defer r.MultipartForm.RemoveAll()

	result, err := s.service.ProcessUpload(r.Context(), req)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePreview reports what an upload would change without running it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, file, err := s.readUpload(w, r, chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer file.Close()
	defer r.MultipartForm.RemoveAll()

	preview, err := s.service.PreviewUpload(r.Context(), req)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleExport downloads the working set as xlsx or csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	file, err := s.service.ExportSession(r.Context(), chi.URLParam(r, "sessionID"), format)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeExport(w, file)
}
