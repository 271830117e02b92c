package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/maillist/internal/core"
)

func TestObserveRun(t *testing.T) {
	m := New("maillist")

	m.ObserveRun(&core.RunResult{
		Stats:        core.ProcessingStats{TotalEmails: 10, InvalidEmails: 2, DuplicatesRemoved: 3},
		MergeDropped: 1,
	}, nil, 150*time.Millisecond)
	m.ObserveRun(nil, core.ErrNoEmailColumn, time.Millisecond)
	m.ObserveRun(nil, errors.New("boom"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("COL001")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ERR000")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.EmailsProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvalidEmails))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DuplicatesRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MergeDropped))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var runs uint64
	for _, mf := range families {
		if mf.GetName() == "maillist_run_duration_seconds" {
			runs = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), runs)
}

func TestObserveExport(t *testing.T) {
	m := New("maillist")

	m.ObserveExport(core.FormatCSV, 4)
	m.ObserveExport(core.FormatXLSX, 6)
	m.ObserveExport(core.FormatCSV, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("xlsx")))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.RecordsExported))
}

func TestObserveRequest(t *testing.T) {
	m := New("maillist")

	m.ObserveRequest("/api/sessions", http.StatusCreated)
	m.ObserveRequest("/api/sessions", http.StatusNotFound)
	m.ObserveRequest("", http.StatusInternalServerError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/sessions", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/sessions", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "5xx")))
}

func TestHandler(t *testing.T) {
	m := New("maillist")
	m.ObserveExport(core.FormatCSV, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `maillist_exports_total{format="csv"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New("maillist")
	b := New("maillist")
	a.ObserveExport(core.FormatCSV, 1)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.ExportsTotal.WithLabelValues("csv")))
}
