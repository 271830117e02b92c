package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/maillist/internal/core"
	"github.com/JonMunkholm/maillist/internal/logging"
)

// handleDashboard renders the upload form and the cookie session's list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	renderPage(w, r, http.StatusOK, dashboardPage(s.dashboardData(sess, nil)))
}

// handleDashboardUpload processes a file for the cookie session, creating
// the session on first use. Success redirects back to the dashboard.
func (s *Server) handleDashboardUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	id := ""
	if sess != nil {
		id = sess.ID
	} else {
		id, err = s.service.NewSession(r.Context())
		if err != nil {
			respondError(w, r, err, 0)
			return
		}
		setSessionCookie(w, r, id)
	}

	req, file, err := s.readUpload(w, r, id)
	if err != nil {
		s.renderDashboardError(w, r, sess, err)
		return
	}
	defer file.Close()
	defer r.MultipartForm.RemoveAll()

	if _, err := s.service.ProcessUpload(r.Context(), req); err != nil {
		s.renderDashboardError(w, r, sess, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	id := sessionFromCookie(r)
	if id == "" {
		respondError(w, r, core.ErrSessionNotFound, 0)
		return
	}
	file, err := s.service.ExportSession(r.Context(), id, format)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeExport(w, file)
}

// handleDashboardReset drops the cookie session and starts over.
func (s *Server) handleDashboardReset(w http.ResponseWriter, r *http.Request) {
	if id := sessionFromCookie(r); id != "" {
		if err := s.service.ResetSession(r.Context(), id); err != nil && !errors.Is(err, core.ErrSessionNotFound) {
			respondError(w, r, err, 0)
			return
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// cookieSession loads the session named by the cookie. A stale cookie is
// cleared and yields a nil session.
func (s *Server) cookieSession(w http.ResponseWriter, r *http.Request) (*core.Session, error) {
	id := sessionFromCookie(r)
	if id == "" {
		return nil, nil
	}
	sess, err := s.service.Session(r.Context(), id)
	if errors.Is(err, core.ErrSessionNotFound) {
		clearSessionCookie(w)
		return nil, nil
	}
	return sess, err
}

func (s *Server) dashboardData(sess *core.Session, msg *core.UserMessage) dashboardData {
	return dashboardData{
		Session:  sess,
		Defaults: s.service.DefaultOptions(),
		MaxMB:    s.service.MaxFileSize() / (1 << 20),
		Limiter:  s.service.LimiterStatus(),
		Error:    msg,
	}
}

// renderDashboardError shows err above the form, keeping the current list.
func (s *Server) renderDashboardError(w http.ResponseWriter, r *http.Request, sess *core.Session, err error) {
	if isHTMX(r) {
		respondError(w, r, err, 0)
		return
	}
	status := statusFor(err)
	msg := core.MapError(err)
	if status >= http.StatusInternalServerError {
		respondError(w, r, err, status)
		return
	}
	logging.FromContext(r.Context()).Warn("upload rejected", "status", status, "error", err, "code", msg.Code)
	renderPage(w, r, status, dashboardPage(s.dashboardData(sess, &msg)))
}
