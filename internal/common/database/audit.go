package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records the outcome of one remote write attempt.
type AuditEntry struct {
	RequestID string
	Intent    string
	Domain    string
	Plant     string
	Action    string
	Status    string
	ErrorCode string
	CreatedAt time.Time
}

// AuditStore persists write outcomes to PostgreSQL.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

const createAuditTable = `CREATE TABLE IF NOT EXISTS address_write_audit (
	id          UUID PRIMARY KEY,
	request_id  TEXT NOT NULL,
	intent      TEXT NOT NULL,
	domain      TEXT NOT NULL,
	plant       TEXT NOT NULL,
	action      TEXT NOT NULL,
	status      TEXT NOT NULL,
	error_code  TEXT,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertAudit = `INSERT INTO address_write_audit
	(id, request_id, intent, domain, plant, action, status, error_code, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// EnsureSchema creates the audit table when missing.
func (s *AuditStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createAuditTable); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

// Record inserts entry and returns its generated id.
func (s *AuditStore) Record(ctx context.Context, entry AuditEntry) (string, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	id := uuid.New().String()

	var errorCode sql.NullString
	if entry.ErrorCode != "" {
		errorCode = sql.NullString{String: entry.ErrorCode, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, insertAudit,
		id, entry.RequestID, entry.Intent, entry.Domain, entry.Plant,
		entry.Action, entry.Status, errorCode, entry.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert audit entry: %w", err)
	}
	return id, nil
}
