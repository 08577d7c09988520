package audit

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"
)

// Repository writes audit logs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	prepare(&entry)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO report_audit_logs (
	id, actor, role, action, report_date, format, row_count,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`, entry.ID, entry.Actor, entry.Role, entry.Action, entry.ReportDate, entry.Format, entry.Rows,
		[]byte(entry.Metadata), entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// LogWriter writes audit entries to a standard logger; used when no database is configured.
type LogWriter struct {
	logger *log.Logger
}

// NewLogWriter constructs a LogWriter.
func NewLogWriter(logger *log.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

// Log prints the entry.
func (w *LogWriter) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	if w == nil || w.logger == nil {
		return nil
	}
	prepare(&entry)
	w.logger.Printf("audit action=%s date=%s format=%s rows=%d actor=%s ip=%s digest=%s",
		entry.Action, entry.ReportDate, entry.Format, entry.Rows, entry.Actor, entry.IP, entry.PayloadDigest)
	return nil
}

func prepare(entry *Entry) {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
}
