package web

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/maillist/internal/core"
	"github.com/JonMunkholm/maillist/internal/logging"
	"github.com/JonMunkholm/maillist/internal/web/templates"
)

// dashboardPreviewRows caps the records shown on the dashboard. Exports
// always contain the full list.
const dashboardPreviewRows = 100

// dashboardData is everything the dashboard page shows.
type dashboardData struct {
	Session  *core.Session
	Defaults core.ProcessingOptions
	MaxMB    int64
	Limiter  core.UploadLimiterStatus
	Error    *core.UserMessage
}

// params converts the page data to the template's view model.
func (d dashboardData) params() templates.DashboardParams {
	p := templates.DashboardParams{
		Form: templates.UploadForm{
			MaxMB:              d.MaxMB,
			RemoveDuplicates:   d.Defaults.RemoveDuplicates,
			RemoveInvalid:      d.Defaults.RemoveInvalid,
			SortAlphabetically: d.Defaults.SortAlphabetically,
			ActiveUploads:      d.Limiter.Active,
			MaxUploads:         d.Limiter.MaxConcurrent,
		},
	}
	if d.Error != nil {
		p.Error = &templates.Alert{Message: d.Error.Message, Action: d.Error.Action, Code: d.Error.Code}
	}
	if d.Session == nil {
		return p
	}

	if run := d.Session.LastRun; run != nil {
		p.LastRun = &templates.RunSummary{
			FileName:          run.FileName,
			TotalEmails:       run.Stats.TotalEmails,
			InvalidEmails:     run.Stats.InvalidEmails,
			DuplicatesRemoved: run.Stats.DuplicatesRemoved,
			AlreadyInList:     run.MergeDropped,
		}
	}

	p.Total = len(d.Session.Records)
	p.Rows = recordRows(d.Session.Records, dashboardPreviewRows)
	return p
}

// recordRows converts at most limit records for the list table.
func recordRows(records []core.EmailRecord, limit int) []templates.RecordRow {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	rows := make([]templates.RecordRow, len(records))
	for i, rec := range records {
		rows[i].Email = rec.Email
		if rec.OriginalRow > 0 {
			rows[i].Line = strconv.Itoa(rec.OriginalRow)
		}
	}
	return rows
}

func dashboardPage(d dashboardData) templ.Component {
	return templates.Dashboard(d.params())
}

func errorAlert(msg core.UserMessage) templ.Component {
	return templates.ErrorAlert(msg.Message, msg.Action, msg.Code)
}

// renderComponent writes c, logging render failures. Headers are already
// sent by then, so nothing else can be done.
func renderComponent(ctx context.Context, w io.Writer, c templ.Component) {
	if err := c.Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render failed", "error", err)
	}
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	renderComponent(r.Context(), w, c)
}
