package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
	"github.com/claimpilot/claims-workflow/pkg/database"
)

// AuditEntry is one appended record in the audit log. Stage transitions and
// human review decisions both land here.
type AuditEntry struct {
	ID        int64     `json:"id"`
	ClaimID   string    `json:"claim_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Action    string    `json:"action,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditLog is the append-only audit sink
type AuditLog interface {
	// Append writes one entry. Entries are never mutated or removed.
	Append(ctx context.Context, entry AuditEntry) error

	// ByClaim returns a claim's entries in chronological order
	ByClaim(ctx context.Context, claimID string) ([]AuditEntry, error)
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	claim_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	action TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_claim ON audit_log(claim_id, timestamp);
`

// SQLiteAuditLog persists audit entries in SQLite
type SQLiteAuditLog struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteAuditLog creates the audit sink and ensures its schema exists
func NewSQLiteAuditLog(db *database.DB, logger *zap.Logger) (*SQLiteAuditLog, error) {
	if _, err := db.Exec(auditSchema); err != nil {
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &SQLiteAuditLog{db: db, logger: logger}, nil
}

// Append writes one entry
func (a *SQLiteAuditLog) Append(ctx context.Context, entry AuditEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO audit_log (claim_id, stage, status, action, actor, message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ClaimID, entry.Stage, entry.Status, entry.Action, entry.Actor, entry.Message, ts,
	)
	if err != nil {
		a.logger.Error("Failed to append audit entry",
			zap.String("claim_id", entry.ClaimID),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ByClaim returns a claim's entries in chronological order
func (a *SQLiteAuditLog) ByClaim(ctx context.Context, claimID string) ([]AuditEntry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, claim_id, stage, status, action, actor, message, timestamp
		 FROM audit_log WHERE claim_id = ? ORDER BY timestamp, id`,
		claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ClaimID, &e.Stage, &e.Status, &e.Action, &e.Actor, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordStageEvent appends an audit entry mirroring a stage event
func RecordStageEvent(ctx context.Context, log AuditLog, claimID string, ev workflow.StageEvent) error {
	return log.Append(ctx, AuditEntry{
		ClaimID:   claimID,
		Stage:     ev.Stage.String(),
		Status:    ev.Status.String(),
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	})
}
