package web

// handlers_common.go holds request parsing helpers shared by the API and
// dashboard handlers.

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/maillist/internal/core"
)

const (
	sessionCookie = "maillist_session"

	// multipartOverhead is the room allowed above the file size limit for
	// form fields and part headers.
	multipartOverhead = 1 << 20
	// multipartMemory is kept in memory before spilling to temp files.
	multipartMemory = 8 << 20
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// formBool reads a checkbox-style value.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// parseOptions reads processing options from the form. It returns nil when
// the request sets none, so the service defaults apply. The dashboard sends
// an "options" marker so an unchecked box means false; API clients may set
// any subset of fields and the rest keep their default.
func parseOptions(r *http.Request, defaults core.ProcessingOptions) *core.ProcessingOptions {
	marker := r.FormValue("options") != ""
	opts := defaults
	fields := []struct {
		name string
		dst  *bool
	}{
		{"removeDuplicates", &opts.RemoveDuplicates},
		{"removeInvalid", &opts.RemoveInvalid},
		{"sortAlphabetically", &opts.SortAlphabetically},
	}

	set := marker
	for _, f := range fields {
		if _, ok := r.Form[f.name]; ok {
			*f.dst = formBool(r.FormValue(f.name))
			set = true
		} else if marker {
			*f.dst = false
		}
	}
	if !set {
		return nil
	}
	return &opts
}

// readUpload parses a multipart request carrying one "file" part. The
// caller closes the returned file and removes the form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, sessionID string) (core.UploadRequest, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return core.UploadRequest{}, nil, fmt.Errorf("%w: request body too large", core.ErrFileTooLarge)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return core.UploadRequest{}, nil, errNoFile
		}
		return core.UploadRequest{}, nil, fmt.Errorf("parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.UploadRequest{}, nil, errNoFile
	}

	req := core.UploadRequest{
		SessionID: sessionID,
		FileName:  header.Filename,
		Body:      file,
		Size:      header.Size,
		Options:   parseOptions(r, s.service.DefaultOptions()),
	}
	return req, file, nil
}

// writeExport sends an export as a download.
func writeExport(w http.ResponseWriter, file *core.ExportFile) {
	h := w.Header()
	h.Set("Content-Type", file.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	h.Set("Content-Length", strconv.Itoa(len(file.Data)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// sessionFromCookie returns the dashboard session id, or "".
func sessionFromCookie(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
