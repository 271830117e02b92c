package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/maillist/internal/logging"
)

// DefaultUploadTimeout bounds one run, from reading the file to saving the session.
const DefaultUploadTimeout = 2 * time.Minute

// ServiceConfig holds the tunables of a Service. Zero values use defaults.
type ServiceConfig struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	UploadTimeout time.Duration
	Defaults      ProcessingOptions
}

// DefaultProcessingOptions enables every optional step.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		RemoveDuplicates:   true,
		RemoveInvalid:      true,
		SortAlphabetically: true,
	}
}

// UploadRequest is one file submitted to a session.
type UploadRequest struct {
	SessionID string
	FileName  string
	Body      io.Reader
	// Size is the declared body size, used for progress logging. Zero if unknown.
	Size int64
	// Options overrides the service defaults when non-nil.
	Options *ProcessingOptions
}

// ExportFile is a serialized working set ready for download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	Records     int
}

// Service runs uploads against per-session working sets.
type Service struct {
	store    SessionStore
	audit    AuditRecorder
	observer RunObserver
	limiter  *UploadLimiter
	cfg      ServiceConfig
	now      func() time.Time

	mu   sync.Mutex
	busy map[string]struct{}
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithAuditRecorder stores an audit entry for every upload, export and reset.
func WithAuditRecorder(r AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = r }
}

// WithRunObserver reports run outcomes to o.
func WithRunObserver(o RunObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over store.
func NewService(store SessionStore, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}

	s := &Service{
		store:    store,
		audit:    NopAuditRecorder{},
		observer: nopObserver{},
		limiter:  NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:      cfg,
		now:      time.Now,
		busy:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultOptions returns the options applied when an upload sets none.
func (s *Service) DefaultOptions() ProcessingOptions {
	return s.cfg.Defaults
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// LimiterStatus reports upload slot usage.
func (s *Service) LimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for in-flight uploads to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// AuditLog returns the most recent audit entries.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	return s.audit.Recent(ctx, limit)
}

// NewSession creates an empty session and returns its id.
func (s *Service) NewSession(ctx context.Context) (string, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	logging.WithFields(ctx, "session_id", sess.ID).Info("session created")
	return sess.ID, nil
}

// Session returns the stored session.
func (s *Service) Session(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Load(ctx, sessionID)
}

// Records returns the working set of a session.
func (s *Service) Records(ctx context.Context, sessionID string) ([]EmailRecord, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Records, nil
}

// ProcessUpload parses the file, runs the pipeline against the session's
// working set and folds the output into it. The session is only updated
// when the run succeeds.
func (s *Service) ProcessUpload(ctx context.Context, req UploadRequest) (result *RunResult, err error) {
	start := s.now()
	runID := uuid.NewString()
	log := logging.ForRun(ctx, req.SessionID, runID, req.FileName)

	defer func() {
		elapsed := s.now().Sub(start)
		s.observer.ObserveRun(result, err, elapsed)

		var stats ProcessingStats
		records := 0
		if result != nil {
			stats = result.Stats
			records = len(result.Records)
		}
		s.recordAudit(ctx, AuditLogParams{
			Action:      ActionUpload,
			SessionID:   req.SessionID,
			RunID:       runID,
			FileName:    req.FileName,
			Stats:       stats,
			RecordCount: records,
			Err:         err,
		})

		if err != nil {
			log.Warn("run failed", "phase", PhaseFailed, "error", err, "code", MapError(err).Code)
		}
	}()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if err := s.claim(req.SessionID); err != nil {
		return nil, err
	}
	defer s.release(req.SessionID)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	sess, err := s.store.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.Defaults
	if req.Options != nil {
		opts = *req.Options
	}

	table, col, err := s.readTable(ctx, req, log)
	if err != nil {
		return nil, err
	}

	out, err := ProcessEmails(table, col, opts, sess.Records)
	if err != nil {
		return nil, err
	}

	finished := s.now()
	sess.Records = AccumulateRecords(sess.Records, out.Records)
	sess.RunCount++
	sess.UpdatedAt = finished.UTC()
	sess.LastRun = &RunSummary{
		RunID:        runID,
		FileName:     req.FileName,
		Stats:        out.Stats,
		MergeDropped: out.MergeDropped,
		FinishedAt:   finished.UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	result = &RunResult{
		RunID:        runID,
		SessionID:    sess.ID,
		FileName:     req.FileName,
		Phase:        PhaseComplete,
		Options:      opts,
		Stats:        out.Stats,
		MergeDropped: out.MergeDropped,
		Records:      sess.Records,
		DurationMs:   finished.Sub(start).Milliseconds(),
	}

	log.Info("run complete",
		"total", out.Stats.TotalEmails,
		"invalid", out.Stats.InvalidEmails,
		"duplicates_removed", out.Stats.DuplicatesRemoved,
		"merge_dropped", out.MergeDropped,
		"working_set", len(sess.Records),
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

// readTable parses the upload and locates its email column.
func (s *Service) readTable(ctx context.Context, req UploadRequest, log *slog.Logger) (Table, int, error) {
	log.Debug("reading file", "phase", PhaseReading, "size", req.Size)
	body := NewCountingReader(req.Body, req.Size)
	table, err := ParseFile(req.FileName, body, s.cfg.MaxFileSize)
	if err != nil {
		return nil, -1, err
	}
	if err := ctx.Err(); err != nil {
		return nil, -1, err
	}

	col, err := FindEmailColumn(table[0])
	if err != nil {
		return nil, -1, err
	}
	if col < 0 {
		return nil, -1, ErrNoEmailColumn
	}

	log.Debug("processing", "phase", PhaseProcessing, "rows", len(table)-headerRows, "column", col, "bytes", body.BytesRead(), "progress", body.Progress())
	return table, col, nil
}

// ExportSession serializes the working set of a session.
func (s *Service) ExportSession(ctx context.Context, sessionID string, format ExportFormat) (file *ExportFile, err error) {
	defer func() {
		n := 0
		if file != nil {
			n = file.Records
			s.observer.ObserveExport(format, n)
		}
		s.recordAudit(ctx, AuditLogParams{
			Action:      ActionExport,
			SessionID:   sessionID,
			FileName:    exportName(file),
			RecordCount: n,
			Err:         err,
		})
	}()

	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	data, err := Export(format, sess.Records)
	if err != nil {
		return nil, err
	}

	file = &ExportFile{
		Name:        ExportFileName(s.now(), format),
		ContentType: format.ContentType(),
		Data:        data,
		Records:     len(sess.Records),
	}
	logging.WithFields(ctx, "session_id", sessionID).Info("list exported",
		"format", format, "records", file.Records, "bytes", len(data))
	return file, nil
}

// ResetSession clears the working set and drops the session. It fails
// with ErrSessionBusy while an upload for the session is in flight.
func (s *Service) ResetSession(ctx context.Context, sessionID string) error {
	if err := s.claim(sessionID); err != nil {
		return err
	}
	defer s.release(sessionID)

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.recordAudit(ctx, AuditLogParams{Action: ActionReset, SessionID: sessionID})
	logging.WithFields(ctx, "session_id", sessionID).Info("session reset")
	return nil
}

// ExportFileName returns the download name for an export made at t.
func ExportFileName(t time.Time, format ExportFormat) string {
	return fmt.Sprintf("email_list_%s.%s", t.Format(time.DateOnly), format)
}

func exportName(f *ExportFile) string {
	if f == nil {
		return ""
	}
	return f.Name
}

// claim marks a session as having an upload in flight.
func (s *Service) claim(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[sessionID]; ok {
		return ErrSessionBusy
	}
	s.busy[sessionID] = struct{}{}
	return nil
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	delete(s.busy, sessionID)
	s.mu.Unlock()
}

// recordAudit stores an entry without failing the caller. It uses a
// detached context so entries for cancelled requests are still written.
func (s *Service) recordAudit(ctx context.Context, p AuditLogParams) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.audit.Record(actx, p); err != nil && !errors.Is(err, context.Canceled) {
		logging.FromContext(ctx).Error("audit write failed", "action", p.Action, "error", err)
	}
}
