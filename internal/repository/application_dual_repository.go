package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// DualApplicationRepository reconciles applications between Postgres and
// applications.json.
type DualApplicationRepository struct {
	dual
	db     *ApplicationRepository
	mirror mirror[models.Application]
}

// NewDualApplicationRepository wires the application reconciler.
func NewDualApplicationRepository(db *ApplicationRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualApplicationRepository {
	return &DualApplicationRepository{
		dual:   newDual(FileApplications, availability, observer, logger),
		db:     db,
		mirror: newMirror(dataDir, FileApplications, func(a *models.Application) string { return a.ID }),
	}
}

// List returns applications matching the filter.
func (r *DualApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	return readDual(r.dual, func() ([]models.Application, error) {
		return r.db.List(ctx, filter)
	}, func() ([]models.Application, error) {
		items, err := r.mirror.filter(func(a *models.Application) bool { return matchApplication(filter, a) })
		if err != nil {
			return nil, err
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].AppliedAt.After(items[j].AppliedAt) })
		return items, nil
	})
}

func matchApplication(filter models.ApplicationFilter, a *models.Application) bool {
	switch {
	case filter.StudentID != "" && a.StudentID != filter.StudentID:
		return false
	case filter.InternshipID != "" && a.InternshipID != filter.InternshipID:
		return false
	case filter.MentorID != "" && a.MentorID != filter.MentorID:
		return false
	case filter.Status != "" && a.Status != filter.Status:
		return false
	}
	return true
}

// FindByID returns an application by id.
func (r *DualApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	return readDual(r.dual, func() (*models.Application, error) {
		return r.db.FindByID(ctx, id)
	}, func() (*models.Application, error) {
		return r.mirror.find(id)
	})
}

// FindByStudentAndInternship returns the latest application of a student to
// a posting.
func (r *DualApplicationRepository) FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	return readDual(r.dual, func() (*models.Application, error) {
		return r.db.FindByStudentAndInternship(ctx, studentID, internshipID)
	}, func() (*models.Application, error) {
		items, err := r.mirror.filter(func(a *models.Application) bool {
			return a.StudentID == studentID && a.InternshipID == internshipID
		})
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, sql.ErrNoRows
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].AppliedAt.After(items[j].AppliedAt) })
		return &items[0], nil
	})
}

// MaxSequence returns the highest APP suffix in the active store.
func (r *DualApplicationRepository) MaxSequence(ctx context.Context) (int, error) {
	return readDual(r.dual, func() (int, error) {
		return r.db.MaxSequence(ctx)
	}, func() (int, error) {
		items, err := r.mirror.all()
		if err != nil {
			return 0, err
		}
		return maxSequence(items, PrefixApplication, func(a models.Application) string { return a.ID }), nil
	})
}

// Create inserts an application.
func (r *DualApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	stampApplication(application)
	return writeDual(r.dual, "create", application.ID, func() error {
		return r.db.Create(ctx, application)
	}, func() error {
		if !r.Available() {
			return r.mirror.insert(application, nil)
		}
		return r.mirror.upsert(application)
	})
}

// Update persists changes to an application.
func (r *DualApplicationRepository) Update(ctx context.Context, application *models.Application) error {
	application.UpdatedAt = time.Now().UTC()
	return writeDual(r.dual, "update", application.ID, func() error {
		return r.db.Update(ctx, application)
	}, func() error {
		if !r.Available() {
			return r.mirror.update(application)
		}
		return r.mirror.upsert(application)
	})
}

// Delete removes an application.
func (r *DualApplicationRepository) Delete(ctx context.Context, id string) error {
	return writeDual(r.dual, "delete", id, func() error {
		return r.db.Delete(ctx, id)
	}, func() error {
		removed, err := r.mirror.remove(id)
		if err == nil && !removed && !r.Available() {
			return sql.ErrNoRows
		}
		return err
	})
}
