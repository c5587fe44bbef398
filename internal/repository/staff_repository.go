package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const (
	adminColumns     = "id, name, email, password_hash, role, created_at, updated_at"
	mentorColumns    = "id, name, email, password_hash, role, department, assigned_students, created_at, updated_at"
	recruiterColumns = "id, name, email, password_hash, role, company, company_logo, created_at, updated_at"
)

// StaffRepository reads admins, mentors and recruiters.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func getOne[T any](ctx context.Context, db *sqlx.DB, table, columns, where string, args ...interface{}) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1", columns, table, where)
	var item T
	if err := db.GetContext(ctx, &item, query, args...); err != nil {
		return nil, err
	}
	return &item, nil
}

func idEmailClause(email string) (string, []interface{}) {
	if email == "" {
		return "id = $1", nil
	}
	return "id = $1 AND LOWER(email) = LOWER($2)", []interface{}{email}
}

// FindAdmin fetches an admin by id and, when given, email.
func (r *StaffRepository) FindAdmin(ctx context.Context, id, email string) (*models.Admin, error) {
	where, extra := idEmailClause(email)
	return getOne[models.Admin](ctx, r.db, "admins", adminColumns, where, append([]interface{}{id}, extra...)...)
}

// FindAdminByEmail fetches an admin by email.
func (r *StaffRepository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return getOne[models.Admin](ctx, r.db, "admins", adminColumns, "LOWER(email) = LOWER($1)", email)
}

// FindMentor fetches a mentor by id and, when given, email.
func (r *StaffRepository) FindMentor(ctx context.Context, id, email string) (*models.Mentor, error) {
	where, extra := idEmailClause(email)
	return getOne[models.Mentor](ctx, r.db, "mentors", mentorColumns, where, append([]interface{}{id}, extra...)...)
}

// FindMentorByEmail fetches a mentor by email.
func (r *StaffRepository) FindMentorByEmail(ctx context.Context, email string) (*models.Mentor, error) {
	return getOne[models.Mentor](ctx, r.db, "mentors", mentorColumns, "LOWER(email) = LOWER($1)", email)
}

// ListMentors returns every mentor ordered by id.
func (r *StaffRepository) ListMentors(ctx context.Context) ([]models.Mentor, error) {
	query := fmt.Sprintf("SELECT %s FROM mentors ORDER BY id ASC", mentorColumns)
	var mentors []models.Mentor
	if err := r.db.SelectContext(ctx, &mentors, query); err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	return mentors, nil
}

// FindRecruiter fetches a recruiter by id and, when given, email.
func (r *StaffRepository) FindRecruiter(ctx context.Context, id, email string) (*models.Recruiter, error) {
	where, extra := idEmailClause(email)
	return getOne[models.Recruiter](ctx, r.db, "recruiters", recruiterColumns, where, append([]interface{}{id}, extra...)...)
}

// FindRecruiterByEmail fetches a recruiter by email.
func (r *StaffRepository) FindRecruiterByEmail(ctx context.Context, email string) (*models.Recruiter, error) {
	return getOne[models.Recruiter](ctx, r.db, "recruiters", recruiterColumns, "LOWER(email) = LOWER($1)", email)
}
