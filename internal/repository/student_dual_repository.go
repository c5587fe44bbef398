package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

func studentMirror(dataDir string) mirror[models.Student] {
	return newMirror(dataDir, FileStudents, func(s *models.Student) string { return s.ID })
}

func sameStudentEmail(existing, candidate *models.Student) bool {
	return equalFold(existing.Email, candidate.Email)
}

// DualStudentRepository reconciles students between Postgres and
// students.json.
type DualStudentRepository struct {
	dual
	db     *StudentRepository
	mirror mirror[models.Student]
}

// NewDualStudentRepository wires the student reconciler.
func NewDualStudentRepository(db *StudentRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *DualStudentRepository {
	return &DualStudentRepository{
		dual:   newDual(FileStudents, availability, observer, logger),
		db:     db,
		mirror: studentMirror(dataDir),
	}
}

// List returns a filtered page of students.
func (r *DualStudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if r.Available() {
		return r.db.List(ctx, filter)
	}
	r.fallbackRead()
	students, err := r.mirror.filter(func(s *models.Student) bool { return matchStudent(filter, s) })
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].CreatedAt.After(students[j].CreatedAt) })
	total := len(students)
	page, size := normalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * size
	if start >= total {
		return []models.Student{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return students[start:end], total, nil
}

func matchStudent(filter models.StudentFilter, s *models.Student) bool {
	if filter.Department != "" && !strings.EqualFold(s.Department, filter.Department) {
		return false
	}
	if filter.Semester > 0 && s.Semester != filter.Semester {
		return false
	}
	if filter.MinCGPA > 0 && s.CGPA < filter.MinCGPA {
		return false
	}
	if filter.Skill != "" && !containsFold(s.Skills, filter.Skill) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.Email), needle) &&
			!strings.Contains(strings.ToLower(s.ID), needle) {
			return false
		}
	}
	if len(filter.IDs) > 0 && !contains(filter.IDs, s.ID) {
		return false
	}
	return true
}

// ListEligible returns students meeting the academic minimums.
func (r *DualStudentRepository) ListEligible(ctx context.Context, departments []string, minCGPA float64, minSemester int) ([]models.Student, error) {
	return readDual(r.dual, func() ([]models.Student, error) {
		return r.db.ListEligible(ctx, departments, minCGPA, minSemester)
	}, func() ([]models.Student, error) {
		return r.mirror.filter(func(s *models.Student) bool {
			if s.CGPA < minCGPA || s.Semester < minSemester {
				return false
			}
			return len(departments) == 0 || contains(departments, s.Department)
		})
	})
}

// FindByID returns a student by id.
func (r *DualStudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return readDual(r.dual, func() (*models.Student, error) {
		return r.db.FindByID(ctx, id)
	}, func() (*models.Student, error) {
		return r.mirror.find(id)
	})
}

// FindByEmail returns a student by email.
func (r *DualStudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	return readDual(r.dual, func() (*models.Student, error) {
		return r.db.FindByEmail(ctx, email)
	}, func() (*models.Student, error) {
		return r.mirror.findBy(func(s *models.Student) bool { return equalFold(s.Email, email) })
	})
}

// FindByClerkID needs the database.
func (r *DualStudentRepository) FindByClerkID(ctx context.Context, clerkID string) (*models.Student, error) {
	if !r.Available() {
		return nil, ErrStoreUnavailable
	}
	return r.db.FindByClerkID(ctx, clerkID)
}

// MaxSequence returns the highest STU suffix in the active store.
func (r *DualStudentRepository) MaxSequence(ctx context.Context) (int, error) {
	return readDual(r.dual, func() (int, error) {
		return r.db.MaxSequence(ctx)
	}, func() (int, error) {
		students, err := r.mirror.all()
		if err != nil {
			return 0, err
		}
		return maxSequence(students, PrefixStudent, func(s models.Student) string { return s.ID }), nil
	})
}

// Create inserts a student. Email and id must be unique in the target store.
func (r *DualStudentRepository) Create(ctx context.Context, student *models.Student) error {
	stampStudent(student)
	return writeDual(r.dual, "create", student.ID, func() error {
		return r.db.Create(ctx, student)
	}, func() error {
		if !r.Available() {
			return r.mirror.insert(student, sameStudentEmail)
		}
		return r.mirror.upsert(student)
	})
}

// Update persists changes to a student.
func (r *DualStudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	return writeDual(r.dual, "update", student.ID, func() error {
		return r.db.Update(ctx, student)
	}, func() error {
		return r.mirror.upsert(student)
	})
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
