package core

// audit.go records list operations (uploads, exports, resets) in Postgres.
//
// Auditing is optional. Without a database the service uses
// NopAuditRecorder and nothing is stored. Audit failures are logged by the
// caller and never fail the operation being audited.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// AuditAction is the kind of operation recorded.
type AuditAction string

const (
	ActionUpload AuditAction = "upload"
	ActionExport AuditAction = "export"
	ActionReset  AuditAction = "reset"
)

// AuditEntry is one stored audit row.
type AuditEntry struct {
	ID                string      `json:"id"`
	Action            AuditAction `json:"action"`
	SessionID         string      `json:"sessionId"`
	RunID             string      `json:"runId,omitempty"`
	FileName          string      `json:"fileName,omitempty"`
	Outcome           string      `json:"outcome"`
	ErrorCode         string      `json:"errorCode,omitempty"`
	TotalEmails       int         `json:"totalEmails"`
	InvalidEmails     int         `json:"invalidEmails"`
	DuplicatesRemoved int         `json:"duplicatesRemoved"`
	RecordCount       int         `json:"recordCount"`
	IPAddress         string      `json:"ipAddress,omitempty"`
	UserAgent         string      `json:"userAgent,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// AuditLogParams holds the fields of a new entry. Outcome is "success" when
// Err is nil; otherwise it is "failure" and ErrorCode comes from MapError.
type AuditLogParams struct {
	Action      AuditAction
	SessionID   string
	RunID       string
	FileName    string
	Stats       ProcessingStats
	RecordCount int
	Err         error
}

// AuditRecorder stores and lists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, params AuditLogParams) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx used here.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS email_list_audit (
	id                 UUID PRIMARY KEY,
	action             TEXT NOT NULL,
	session_id         TEXT NOT NULL,
	run_id             UUID,
	file_name          TEXT,
	outcome            TEXT NOT NULL,
	error_code         TEXT,
	total_emails       INTEGER NOT NULL DEFAULT 0,
	invalid_emails     INTEGER NOT NULL DEFAULT 0,
	duplicates_removed INTEGER NOT NULL DEFAULT 0,
	record_count       INTEGER NOT NULL DEFAULT 0,
	ip_address         TEXT,
	user_agent         TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS email_list_audit_created_at_idx ON email_list_audit (created_at DESC);`

const insertAuditSQL = `
INSERT INTO email_list_audit (
	id, action, session_id, run_id, file_name, outcome, error_code,
	total_emails, invalid_emails, duplicates_removed, record_count,
	ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const recentAuditSQL = `
SELECT id, action, session_id, run_id, file_name, outcome, error_code,
	total_emails, invalid_emails, duplicates_removed, record_count,
	ip_address, user_agent, created_at
FROM email_list_audit
ORDER BY created_at DESC
LIMIT $1`

// PgAuditRecorder writes audit entries with pgx.
type PgAuditRecorder struct {
	db  DBTX
	now func() time.Time
}

// NewPgAuditRecorder returns a recorder backed by db.
func NewPgAuditRecorder(db DBTX) *PgAuditRecorder {
	return &PgAuditRecorder{db: db, now: time.Now}
}

// EnsureSchema creates the audit table if it does not exist.
func (r *PgAuditRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts one entry. Request metadata is read from ctx.
func (r *PgAuditRecorder) Record(ctx context.Context, p AuditLogParams) error {
	meta := RequestMetaFromContext(ctx)

	outcome, code := "success", ""
	if p.Err != nil {
		outcome, code = "failure", MapError(p.Err).Code
	}

	_, err := r.db.Exec(ctx, insertAuditSQL,
		ToPgUUID(uuid.NewString()),
		string(p.Action),
		p.SessionID,
		ToPgUUID(p.RunID),
		ToPgText(p.FileName),
		outcome,
		ToPgText(code),
		ToPgInt4(p.Stats.TotalEmails),
		ToPgInt4(p.Stats.InvalidEmails),
		ToPgInt4(p.Stats.DuplicatesRemoved),
		ToPgInt4(p.RecordCount),
		ToPgText(meta.IPAddress),
		ToPgText(meta.UserAgent),
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *PgAuditRecorder) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, recentAuditSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditEntry, error) {
		var (
			e                          AuditEntry
			id, runID                  pgtype.UUID
			action, sessionID          string
			fileName, errCode, ip, ua  pgtype.Text
			total, invalid, dups, recs int32
		)
		if err := row.Scan(&id, &action, &sessionID, &runID, &fileName, &e.Outcome, &errCode,
			&total, &invalid, &dups, &recs, &ip, &ua, &e.CreatedAt); err != nil {
			return e, err
		}
		e.ID = PgUUIDToString(id)
		e.Action = AuditAction(action)
		e.SessionID = sessionID
		e.RunID = PgUUIDToString(runID)
		e.FileName = fileName.String
		e.ErrorCode = errCode.String
		e.TotalEmails = int(total)
		e.InvalidEmails = int(invalid)
		e.DuplicatesRemoved = int(dups)
		e.RecordCount = int(recs)
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit entries: %w", err)
	}
	return entries, nil
}

// NopAuditRecorder discards entries.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(context.Context, AuditLogParams) error { return nil }

func (NopAuditRecorder) Recent(context.Context, int) ([]AuditEntry, error) { return nil, nil }
