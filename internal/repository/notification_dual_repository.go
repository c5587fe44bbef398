package repository

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// DualNotificationRepository reconciles scheduled notifications between
// Postgres and scheduled_notifications.json.
type DualNotificationRepository struct {
	dual
	db     *NotificationRepository
	mirror mirror[models.ScheduledNotification]
}

// NewDualNotificationRepository wires the notification reconciler.
func NewDualNotificationRepository(db *NotificationRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualNotificationRepository {
	return &DualNotificationRepository{
		dual:   newDual(FileNotifications, availability, observer, logger),
		db:     db,
		mirror: newMirror(dataDir, FileNotifications, func(n *models.ScheduledNotification) string { return n.NotificationID }),
	}
}

// Create stores a scheduled notification.
func (r *DualNotificationRepository) Create(ctx context.Context, n *models.ScheduledNotification) error {
	stampNotification(n)
	return writeDual(r.dual, "create", n.NotificationID, func() error {
		return r.db.Create(ctx, n)
	}, func() error {
		return r.mirror.upsert(n)
	})
}

// FindByID returns a notification by id.
func (r *DualNotificationRepository) FindByID(ctx context.Context, id string) (*models.ScheduledNotification, error) {
	return readDual(r.dual, func() (*models.ScheduledNotification, error) {
		return r.db.FindByID(ctx, id)
	}, func() (*models.ScheduledNotification, error) {
		return r.mirror.find(id)
	})
}

// List returns notifications matching the filter.
func (r *DualNotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.ScheduledNotification, error) {
	return readDual(r.dual, func() ([]models.ScheduledNotification, error) {
		return r.db.List(ctx, filter)
	}, func() ([]models.ScheduledNotification, error) {
		items, err := r.mirror.filter(func(n *models.ScheduledNotification) bool { return matchNotification(filter, n) })
		if err != nil {
			return nil, err
		}
		switch filter.OrderBy {
		case models.NotificationOrderCreatedDesc:
			sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
		case models.NotificationOrderScheduledDesc:
			sort.SliceStable(items, func(i, j int) bool { return items[i].ScheduledTime.After(items[j].ScheduledTime) })
		default:
			sort.SliceStable(items, func(i, j int) bool { return items[i].ScheduledTime.Before(items[j].ScheduledTime) })
		}
		if filter.Limit > 0 && len(items) > filter.Limit {
			items = items[:filter.Limit]
		}
		return items, nil
	})
}

func matchNotification(filter models.NotificationFilter, n *models.ScheduledNotification) bool {
	if filter.Type != "" && n.Type != filter.Type {
		return false
	}
	if filter.Status != "" && n.Status != filter.Status {
		return false
	}
	if filter.RecipientEmail != "" && !equalFold(n.RecipientEmail, filter.RecipientEmail) {
		return false
	}
	if filter.OwnerEmail != "" || filter.OwnerID != "" {
		if !equalFold(n.RecipientEmail, filter.OwnerEmail) && (filter.OwnerID == "" || n.CreatedBy != filter.OwnerID) {
			return false
		}
	}
	return true
}

// Due returns pending notifications whose send time has passed.
func (r *DualNotificationRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotification, error) {
	return readDual(r.dual, func() ([]models.ScheduledNotification, error) {
		return r.db.Due(ctx, now, limit)
	}, func() ([]models.ScheduledNotification, error) {
		items, err := r.mirror.filter(func(n *models.ScheduledNotification) bool {
			return n.Status == models.NotificationPending && !n.ScheduledTime.After(now)
		})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].ScheduledTime.Before(items[j].ScheduledTime) })
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	})
}

// Update persists the delivery state of a notification.
func (r *DualNotificationRepository) Update(ctx context.Context, n *models.ScheduledNotification) error {
	return writeDual(r.dual, "update", n.NotificationID, func() error {
		return r.db.Update(ctx, n)
	}, func() error {
		if !r.Available() {
			return r.mirror.update(n)
		}
		return r.mirror.upsert(n)
	})
}

// Stats counts notifications by type and status.
func (r *DualNotificationRepository) Stats(ctx context.Context) (models.NotificationStats, error) {
	return readDual(r.dual, func() (models.NotificationStats, error) {
		return r.db.Stats(ctx)
	}, func() (models.NotificationStats, error) {
		items, err := r.mirror.all()
		if err != nil {
			return models.NotificationStats{}, err
		}
		stats := newNotificationStats()
		for _, n := range items {
			addNotificationStat(&stats, string(n.Type), n.Status, 1)
		}
		return stats, nil
	})
}

// Cleanup deletes finished notifications created before cutoff in both
// stores.
func (r *DualNotificationRepository) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := writeDual(r.dual, "cleanup", "", func() error {
		n, err := r.db.Cleanup(ctx, cutoff)
		removed = n
		return err
	}, func() error {
		n, err := r.mirror.removeWhere(func(item *models.ScheduledNotification) bool {
			return item.Status != models.NotificationPending && item.CreatedAt.Before(cutoff)
		})
		if !r.Available() {
			removed = int64(n)
		}
		return err
	})
	return removed, err
}

