package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// AuditRepository persists the admin audit trail in Postgres.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	const query = `INSERT INTO audit_logs (id, admin_id, action, details, timestamp)
        VALUES (:id, :admin_id, :action, :details, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns the latest entries, optionally for one admin.
func (r *AuditRepository) List(ctx context.Context, adminID string, limit int) ([]models.AuditLog, error) {
	query := "SELECT id, admin_id, action, details, timestamp FROM audit_logs"
	var args []interface{}
	if adminID != "" {
		query += " WHERE admin_id = $1"
		args = append(args, adminID)
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d", limit)
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}

// DualAuditRepository reconciles the audit trail with audit_logs.json.
type DualAuditRepository struct {
	dual
	db     *AuditRepository
	mirror mirror[models.AuditLog]
}

// NewDualAuditRepository wires the audit reconciler.
func NewDualAuditRepository(db *AuditRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualAuditRepository {
	return &DualAuditRepository{
		dual:   newDual(FileAuditLogs, availability, observer, logger),
		db:     db,
		mirror: newMirror(dataDir, FileAuditLogs, func(a *models.AuditLog) string { return a.ID }),
	}
}

// Create records an entry, assigning id and timestamp when missing.
func (r *DualAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = "AUDIT-" + uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return writeDual(r.dual, "create", entry.ID, func() error {
		return r.db.Create(ctx, entry)
	}, func() error {
		return r.mirror.upsert(entry)
	})
}

// List returns the latest entries, optionally for one admin.
func (r *DualAuditRepository) List(ctx context.Context, adminID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return readDual(r.dual, func() ([]models.AuditLog, error) {
		return r.db.List(ctx, adminID, limit)
	}, func() ([]models.AuditLog, error) {
		entries, err := r.mirror.filter(func(a *models.AuditLog) bool { return adminID == "" || a.AdminID == adminID })
		if err != nil {
			return nil, err
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	})
}
