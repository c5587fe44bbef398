package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const calendarEventColumns = "id, kind, title, description, date, time, location, company, created_by, student_id, created_at"

// CalendarRepository persists faculty and student calendar events and
// interview availability.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// ListEvents returns persisted events matching the filter ordered by date.
func (r *CalendarRepository) ListEvents(ctx context.Context, filter models.CalendarEventFilter) ([]models.CalendarEvent, error) {
	var conditions []string
	var args []interface{}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM calendar_events", calendarEventColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC"

	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// FindEvent fetches an event by id.
func (r *CalendarRepository) FindEvent(ctx context.Context, id string) (*models.CalendarEvent, error) {
	return getOne[models.CalendarEvent](ctx, r.db, "calendar_events", calendarEventColumns, "id = $1", id)
}

// CreateEvent inserts an event.
func (r *CalendarRepository) CreateEvent(ctx context.Context, event *models.CalendarEvent) error {
	const query = `INSERT INTO calendar_events (id, kind, title, description, date, time, location, company, created_by, student_id, created_at)
        VALUES (:id, :kind, :title, :description, :date, :time, :location, :company, :created_by, :student_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event.
func (r *CalendarRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return expectAffected(res)
}

// GetAvailability fetches the slots published by a user.
func (r *CalendarRepository) GetAvailability(ctx context.Context, userID string) (*models.Availability, error) {
	return getOne[models.Availability](ctx, r.db, "availability", "user_id, role, slots, updated_at", "user_id = $1", userID)
}

// SaveAvailability replaces the slots of a user.
func (r *CalendarRepository) SaveAvailability(ctx context.Context, availability *models.Availability) error {
	const query = `INSERT INTO availability (user_id, role, slots, updated_at) VALUES (:user_id, :role, :slots, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, slots = EXCLUDED.slots, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, availability); err != nil {
		return fmt.Errorf("save availability: %w", err)
	}
	return nil
}

// DualCalendarRepository reconciles calendar data with faculty_events.json,
// student_events.json and availability.json.
type DualCalendarRepository struct {
	dual
	db           *CalendarRepository
	faculty      mirror[models.CalendarEvent]
	student      mirror[models.CalendarEvent]
	availability mirror[models.Availability]
}

// NewDualCalendarRepository wires the calendar reconciler.
func NewDualCalendarRepository(db *CalendarRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualCalendarRepository {
	eventID := func(e *models.CalendarEvent) string { return e.ID }
	return &DualCalendarRepository{
		dual:         newDual("calendar", availability, observer, logger),
		db:           db,
		faculty:      newMirror(dataDir, FileFacultyEvents, eventID),
		student:      newMirror(dataDir, FileStudentEvents, eventID),
		availability: newMirror(dataDir, FileAvailabilities, func(a *models.Availability) string { return a.UserID }),
	}
}

func (r *DualCalendarRepository) events(kind models.CalendarEventKind) mirror[models.CalendarEvent] {
	if kind == models.CalendarEventStudent {
		return r.student
	}
	return r.faculty
}

// ListEvents returns persisted events of one kind.
func (r *DualCalendarRepository) ListEvents(ctx context.Context, filter models.CalendarEventFilter) ([]models.CalendarEvent, error) {
	return readDual(r.dual, func() ([]models.CalendarEvent, error) {
		return r.db.ListEvents(ctx, filter)
	}, func() ([]models.CalendarEvent, error) {
		events, err := r.events(filter.Kind).filter(func(e *models.CalendarEvent) bool {
			return filter.StudentID == "" || e.StudentID == filter.StudentID
		})
		if err != nil {
			return nil, err
		}
		for i := range events {
			if events[i].Kind == "" {
				events[i].Kind = filter.Kind
			}
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
		return events, nil
	})
}

// FindEvent returns an event of the given kind.
func (r *DualCalendarRepository) FindEvent(ctx context.Context, kind models.CalendarEventKind, id string) (*models.CalendarEvent, error) {
	return readDual(r.dual, func() (*models.CalendarEvent, error) {
		event, err := r.db.FindEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		if event.Kind != kind {
			return nil, sql.ErrNoRows
		}
		return event, nil
	}, func() (*models.CalendarEvent, error) {
		return r.events(kind).find(id)
	})
}

// CreateEvent stores an event, assigning id and creation time.
func (r *DualCalendarRepository) CreateEvent(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return writeDual(r.dual, "create_event", event.ID, func() error {
		return r.db.CreateEvent(ctx, event)
	}, func() error {
		return r.events(event.Kind).upsert(event)
	})
}

// DeleteEvent removes an event of the given kind.
func (r *DualCalendarRepository) DeleteEvent(ctx context.Context, kind models.CalendarEventKind, id string) error {
	return writeDual(r.dual, "delete_event", id, func() error {
		return r.db.DeleteEvent(ctx, id)
	}, func() error {
		removed, err := r.events(kind).remove(id)
		if err == nil && !removed && !r.Available() {
			return sql.ErrNoRows
		}
		return err
	})
}

// GetAvailability returns a user's slots.
func (r *DualCalendarRepository) GetAvailability(ctx context.Context, userID string) (*models.Availability, error) {
	return readDual(r.dual, func() (*models.Availability, error) {
		return r.db.GetAvailability(ctx, userID)
	}, func() (*models.Availability, error) {
		return r.availability.find(userID)
	})
}

// SaveAvailability replaces a user's slots.
func (r *DualCalendarRepository) SaveAvailability(ctx context.Context, availability *models.Availability) error {
	availability.UpdatedAt = time.Now().UTC()
	return writeDual(r.dual, "save_availability", availability.UserID, func() error {
		return r.db.SaveAvailability(ctx, availability)
	}, func() error {
		return r.availability.upsert(availability)
	})
}
