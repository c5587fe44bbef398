package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const applicationColumns = `id, student_id, internship_id, status, cover_letter, mentor_id, mentor_approval, mentor_feedback,
        interview_scheduled, interview_feedback, offer_details, feedback, ipp_status, ipp_id, applied_at, rejected_at,
        created_at, updated_at`

// ApplicationRepository persists applications in Postgres.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// List returns applications matching the filter, most recent first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	var conditions []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.StudentID != "" {
		add("student_id", filter.StudentID)
	}
	if filter.InternshipID != "" {
		add("internship_id", filter.InternshipID)
	}
	if filter.MentorID != "" {
		add("mentor_id", filter.MentorID)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}
	query := fmt.Sprintf("SELECT %s FROM applications", applicationColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY applied_at DESC"

	var applications []models.Application
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return applications, nil
}

// FindByID fetches an application by id.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	return getOne[models.Application](ctx, r.db, "applications", applicationColumns, "id = $1", id)
}

// FindByStudentAndInternship fetches a student's application to a posting.
func (r *ApplicationRepository) FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	return getOne[models.Application](ctx, r.db, "applications", applicationColumns,
		"student_id = $1 AND internship_id = $2 ORDER BY applied_at DESC", studentID, internshipID)
}

// MaxSequence returns the highest numeric APP suffix in use.
func (r *ApplicationRepository) MaxSequence(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(CAST(SUBSTRING(id FROM 4) AS INTEGER)), 0) FROM applications WHERE id ~ '^APP[0-9]+$'`
	var n int
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("max application sequence: %w", err)
	}
	return n, nil
}

// Create inserts an application.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	stampApplication(application)
	const query = `INSERT INTO applications (id, student_id, internship_id, status, cover_letter, mentor_id, mentor_approval,
        mentor_feedback, interview_scheduled, interview_feedback, offer_details, feedback, ipp_status, ipp_id, applied_at,
        rejected_at, created_at, updated_at)
        VALUES (:id, :student_id, :internship_id, :status, :cover_letter, :mentor_id, :mentor_approval,
        :mentor_feedback, :interview_scheduled, :interview_feedback, :offer_details, :feedback, :ipp_status, :ipp_id, :applied_at,
        :rejected_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of an application.
func (r *ApplicationRepository) Update(ctx context.Context, application *models.Application) error {
	application.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET status = :status, cover_letter = :cover_letter, mentor_id = :mentor_id,
        mentor_approval = :mentor_approval, mentor_feedback = :mentor_feedback, interview_scheduled = :interview_scheduled,
        interview_feedback = :interview_feedback, offer_details = :offer_details, feedback = :feedback,
        ipp_status = :ipp_status, ipp_id = :ipp_id, rejected_at = :rejected_at, updated_at = :updated_at
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, application)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM applications WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return expectAffected(res)
}

func stampApplication(application *models.Application) {
	now := time.Now().UTC()
	if application.AppliedAt.IsZero() {
		application.AppliedAt = now
	}
	if application.CreatedAt.IsZero() {
		application.CreatedAt = now
	}
	application.UpdatedAt = now
	if application.IPPStatus == "" {
		application.IPPStatus = models.IPPLinkNotApplicable
	}
}
