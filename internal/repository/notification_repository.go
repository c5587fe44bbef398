package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const notificationColumns = `notification_id, type, scheduled_time, recipient_email, recipient_name, subject, message, metadata,
        created_by, status, sent_at, failed_at, cancelled_at, cancelled_by, error, created_at`

// NotificationRepository persists scheduled notifications in Postgres.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a scheduled notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.ScheduledNotification) error {
	stampNotification(n)
	const query = `INSERT INTO scheduled_notifications (notification_id, type, scheduled_time, recipient_email, recipient_name,
        subject, message, metadata, created_by, status, sent_at, failed_at, cancelled_at, cancelled_by, error, created_at)
        VALUES (:notification_id, :type, :scheduled_time, :recipient_email, :recipient_name,
        :subject, :message, :metadata, :created_by, :status, :sent_at, :failed_at, :cancelled_at, :cancelled_by, :error, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByID fetches a notification by id.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.ScheduledNotification, error) {
	return getOne[models.ScheduledNotification](ctx, r.db, "scheduled_notifications", notificationColumns, "notification_id = $1", id)
}

// List returns notifications matching the filter.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.ScheduledNotification, error) {
	var conditions []string
	var args []interface{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RecipientEmail != "" {
		args = append(args, filter.RecipientEmail)
		conditions = append(conditions, fmt.Sprintf("LOWER(recipient_email) = LOWER($%d)", len(args)))
	}
	if filter.OwnerEmail != "" || filter.OwnerID != "" {
		args = append(args, filter.OwnerEmail, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("(LOWER(recipient_email) = LOWER($%d) OR created_by = $%d)", len(args)-1, len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM scheduled_notifications", notificationColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	order := "scheduled_time ASC"
	switch filter.OrderBy {
	case models.NotificationOrderCreatedDesc:
		order = "created_at DESC"
	case models.NotificationOrderScheduledDesc:
		order = "scheduled_time DESC"
	}
	query += " ORDER BY " + order
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var items []models.ScheduledNotification
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// Due returns pending notifications whose send time has passed, oldest first.
func (r *NotificationRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotification, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_notifications WHERE status = $1 AND scheduled_time <= $2
        ORDER BY scheduled_time ASC LIMIT %d`, notificationColumns, limit)
	var items []models.ScheduledNotification
	if err := r.db.SelectContext(ctx, &items, query, models.NotificationPending, now); err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	return items, nil
}

// Update persists the delivery state of a notification.
func (r *NotificationRepository) Update(ctx context.Context, n *models.ScheduledNotification) error {
	const query = `UPDATE scheduled_notifications SET status = :status, sent_at = :sent_at, failed_at = :failed_at,
        cancelled_at = :cancelled_at, cancelled_by = :cancelled_by, error = :error
        WHERE notification_id = :notification_id`
	res, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return expectAffected(res)
}

// Stats counts notifications by type and status.
func (r *NotificationRepository) Stats(ctx context.Context) (models.NotificationStats, error) {
	var rows []struct {
		Type   string `db:"type"`
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	const query = `SELECT type, status, COUNT(*) AS count FROM scheduled_notifications GROUP BY type, status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return models.NotificationStats{}, fmt.Errorf("notification stats: %w", err)
	}
	stats := newNotificationStats()
	for _, row := range rows {
		addNotificationStat(&stats, row.Type, models.NotificationStatus(row.Status), row.Count)
	}
	return stats, nil
}

// Cleanup deletes delivered, failed and cancelled notifications created
// before cutoff.
func (r *NotificationRepository) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM scheduled_notifications WHERE status <> $1 AND created_at < $2",
		models.NotificationPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	return n, nil
}

func stampNotification(n *models.ScheduledNotification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	if n.Metadata == nil {
		n.Metadata = models.NotificationMetadata{}
	}
}

func newNotificationStats() models.NotificationStats {
	return models.NotificationStats{ByType: make(map[string]models.NotificationTypeStats)}
}

func addNotificationStat(stats *models.NotificationStats, typ string, status models.NotificationStatus, count int) {
	stats.Total += count
	byType := stats.ByType[typ]
	switch status {
	case models.NotificationPending:
		stats.Pending += count
		byType.Pending += count
	case models.NotificationSent:
		stats.Sent += count
		byType.Sent += count
	case models.NotificationFailed:
		stats.Failed += count
		byType.Failed += count
	case models.NotificationCancelled:
		stats.Cancelled += count
		byType.Cancelled += count
	}
	stats.ByType[typ] = byType
}
