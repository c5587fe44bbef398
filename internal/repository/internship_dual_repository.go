package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// DualInternshipRepository reconciles postings between Postgres and
// internships.json.
type DualInternshipRepository struct {
	dual
	db     *InternshipRepository
	mirror mirror[models.Internship]
}

// NewDualInternshipRepository wires the internship reconciler.
func NewDualInternshipRepository(db *InternshipRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualInternshipRepository {
	return &DualInternshipRepository{
		dual:   newDual(FileInternships, availability, observer, logger),
		db:     db,
		mirror: newMirror(dataDir, FileInternships, func(i *models.Internship) string { return i.ID }),
	}
}

// List returns postings matching status and owner.
func (r *DualInternshipRepository) List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error) {
	return readDual(r.dual, func() ([]models.Internship, error) {
		return r.db.List(ctx, filter)
	}, func() ([]models.Internship, error) {
		items, err := r.mirror.filter(func(i *models.Internship) bool {
			if filter.Status != "" && i.Status != filter.Status {
				return false
			}
			return filter.OwnerID == "" || i.OwnedBy(filter.OwnerID)
		})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(items, func(a, b int) bool { return items[a].CreatedAt.After(items[b].CreatedAt) })
		return items, nil
	})
}

// FindByID returns a posting by id.
func (r *DualInternshipRepository) FindByID(ctx context.Context, id string) (*models.Internship, error) {
	return readDual(r.dual, func() (*models.Internship, error) {
		return r.db.FindByID(ctx, id)
	}, func() (*models.Internship, error) {
		return r.mirror.find(id)
	})
}

// MaxSequence returns the highest INT suffix in the active store.
func (r *DualInternshipRepository) MaxSequence(ctx context.Context) (int, error) {
	return readDual(r.dual, func() (int, error) {
		return r.db.MaxSequence(ctx)
	}, func() (int, error) {
		items, err := r.mirror.all()
		if err != nil {
			return 0, err
		}
		return maxSequence(items, PrefixInternship, func(i models.Internship) string { return i.ID }), nil
	})
}

// Create inserts a posting.
func (r *DualInternshipRepository) Create(ctx context.Context, internship *models.Internship) error {
	stampInternship(internship)
	return writeDual(r.dual, "create", internship.ID, func() error {
		return r.db.Create(ctx, internship)
	}, func() error {
		if !r.Available() {
			return r.mirror.insert(internship, nil)
		}
		return r.mirror.upsert(internship)
	})
}

// Update persists changes to a posting.
func (r *DualInternshipRepository) Update(ctx context.Context, internship *models.Internship) error {
	internship.UpdatedAt = time.Now().UTC()
	return writeDual(r.dual, "update", internship.ID, func() error {
		return r.db.Update(ctx, internship)
	}, func() error {
		if !r.Available() {
			return r.mirror.update(internship)
		}
		return r.mirror.upsert(internship)
	})
}

// Delete removes a posting.
func (r *DualInternshipRepository) Delete(ctx context.Context, id string) error {
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

// AdjustApplications changes the current application count by delta.
func (r *DualInternshipRepository) AdjustApplications(ctx context.Context, id string, delta int) error {
	return writeDual(r.dual, "adjust_applications", id, func() error {
		return r.db.AdjustApplications(ctx, id, delta)
	}, func() error {
		err := r.mirror.modify(id, func(i *models.Internship) {
			i.CurrentApplications += delta
			if i.CurrentApplications < 0 {
				i.CurrentApplications = 0
			}
			i.UpdatedAt = time.Now().UTC()
		})
		if IsNotFound(err) && r.Available() {
			return nil
		}
		return err
	})
}
