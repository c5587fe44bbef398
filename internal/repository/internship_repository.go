package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const internshipColumns = `id, title, company, company_logo, description, required_skills, preferred_skills, eligible_departments,
        minimum_semester, minimum_cgpa, stipend, duration, location, work_mode, application_deadline, start_date, end_date,
        max_applications, current_applications, status, company_description, requirements, benefits, posted_by,
        posted_by_role, submitted_by, approved_by, submitted_at, approved_at, admin_notes, recruiter_notes,
        rejection_reason, created_at, updated_at`

// InternshipRepository persists internship postings in Postgres.
type InternshipRepository struct {
	db *sqlx.DB
}

// NewInternshipRepository constructs an InternshipRepository.
func NewInternshipRepository(db *sqlx.DB) *InternshipRepository {
	return &InternshipRepository{db: db}
}

// List returns postings filtered by status and owner, newest first. Richer
// filters are applied by the caller.
func (r *InternshipRepository) List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("(posted_by = $%d OR submitted_by = $%d)", len(args), len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM internships", internshipColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var internships []models.Internship
	if err := r.db.SelectContext(ctx, &internships, query, args...); err != nil {
		return nil, fmt.Errorf("list internships: %w", err)
	}
	return internships, nil
}

// FindByID fetches an internship by id.
func (r *InternshipRepository) FindByID(ctx context.Context, id string) (*models.Internship, error) {
	return getOne[models.Internship](ctx, r.db, "internships", internshipColumns, "id = $1", id)
}

// MaxSequence returns the highest numeric INT suffix in use.
func (r *InternshipRepository) MaxSequence(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(CAST(SUBSTRING(id FROM 4) AS INTEGER)), 0) FROM internships WHERE id ~ '^INT[0-9]+$'`
	var n int
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("max internship sequence: %w", err)
	}
	return n, nil
}

// Create inserts a posting.
func (r *InternshipRepository) Create(ctx context.Context, internship *models.Internship) error {
	stampInternship(internship)
	const query = `INSERT INTO internships (id, title, company, company_logo, description, required_skills, preferred_skills,
        eligible_departments, minimum_semester, minimum_cgpa, stipend, duration, location, work_mode, application_deadline,
        start_date, end_date, max_applications, current_applications, status, company_description, requirements, benefits,
        posted_by, posted_by_role, submitted_by, approved_by, submitted_at, approved_at, admin_notes, recruiter_notes,
        rejection_reason, created_at, updated_at)
        VALUES (:id, :title, :company, :company_logo, :description, :required_skills, :preferred_skills,
        :eligible_departments, :minimum_semester, :minimum_cgpa, :stipend, :duration, :location, :work_mode, :application_deadline,
        :start_date, :end_date, :max_applications, :current_applications, :status, :company_description, :requirements, :benefits,
        :posted_by, :posted_by_role, :submitted_by, :approved_by, :submitted_at, :approved_at, :admin_notes, :recruiter_notes,
        :rejection_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, internship); err != nil {
		return fmt.Errorf("create internship: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of a posting.
func (r *InternshipRepository) Update(ctx context.Context, internship *models.Internship) error {
	internship.UpdatedAt = time.Now().UTC()
	const query = `UPDATE internships SET title = :title, company = :company, company_logo = :company_logo,
        description = :description, required_skills = :required_skills, preferred_skills = :preferred_skills,
        eligible_departments = :eligible_departments, minimum_semester = :minimum_semester, minimum_cgpa = :minimum_cgpa,
        stipend = :stipend, duration = :duration, location = :location, work_mode = :work_mode,
        application_deadline = :application_deadline, start_date = :start_date, end_date = :end_date,
        max_applications = :max_applications, current_applications = :current_applications, status = :status,
        company_description = :company_description, requirements = :requirements, benefits = :benefits,
        posted_by = :posted_by, posted_by_role = :posted_by_role, submitted_by = :submitted_by, approved_by = :approved_by,
        submitted_at = :submitted_at, approved_at = :approved_at, admin_notes = :admin_notes,
        recruiter_notes = :recruiter_notes, rejection_reason = :rejection_reason, updated_at = :updated_at
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, internship)
	if err != nil {
		return fmt.Errorf("update internship: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a posting.
func (r *InternshipRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM internships WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete internship: %w", err)
	}
	return expectAffected(res)
}

// AdjustApplications adds delta to current_applications without going below
// zero.
func (r *InternshipRepository) AdjustApplications(ctx context.Context, id string, delta int) error {
	const query = `UPDATE internships SET current_applications = GREATEST(current_applications + $2, 0), updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjust internship applications: %w", err)
	}
	return nil
}

func stampInternship(internship *models.Internship) {
	now := time.Now().UTC()
	if internship.CreatedAt.IsZero() {
		internship.CreatedAt = now
	}
	internship.UpdatedAt = now
	for _, arr := range []*pq.StringArray{&internship.RequiredSkills, &internship.PreferredSkills,
		&internship.EligibleDepartments, &internship.Requirements, &internship.Benefits} {
		if *arr == nil {
			*arr = pq.StringArray{}
		}
	}
}
