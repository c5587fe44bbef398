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

const studentColumns = `id, name, email, password_hash, clerk_id, role, department, semester, cgpa, skills, phone, resume_link,
        assigned_mentor, internship_passports, employability_score, total_internships_completed, average_internship_rating,
        placement_status, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.MinCGPA > 0 {
		conditions = append(conditions, fmt.Sprintf("cgpa >= $%d", len(args)+1))
		args = append(args, filter.MinCGPA)
	}
	if filter.Skill != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(skills) sk WHERE LOWER(sk) = LOWER($%d))", len(args)+1))
		args = append(args, filter.Skill)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(id) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(filter.IDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.IDs))
	}

	base := "FROM students"
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"cgpa":       "cgpa",
		"semester":   "semester",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListEligible returns students in one of departments meeting the academic
// minimums. An empty department list matches every department.
func (r *StudentRepository) ListEligible(ctx context.Context, departments []string, minCGPA float64, minSemester int) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE cgpa >= $1 AND semester >= $2", studentColumns)
	args := []interface{}{minCGPA, minSemester}
	if len(departments) > 0 {
		query += " AND department = ANY($3)"
		args = append(args, pq.Array(departments))
	}
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list eligible students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail fetches a student by email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", email)
}

// FindByClerkID fetches the student linked to an external identity.
func (r *StudentRepository) FindByClerkID(ctx context.Context, clerkID string) (*models.Student, error) {
	return r.findOne(ctx, "clerk_id = $1", clerkID)
}

// FindByIDAndEmail fetches the student matching both id and email. An empty
// email matches on id alone.
func (r *StudentRepository) FindByIDAndEmail(ctx context.Context, id, email string) (*models.Student, error) {
	if email == "" {
		return r.FindByID(ctx, id)
	}
	return r.findOne(ctx, "id = $1 AND LOWER(email) = LOWER($2)", id, email)
}

func (r *StudentRepository) findOne(ctx context.Context, where string, args ...interface{}) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE %s LIMIT 1", studentColumns, where)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		return nil, err
	}
	return &student, nil
}

// MaxSequence returns the highest numeric STU suffix in use.
func (r *StudentRepository) MaxSequence(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(CAST(SUBSTRING(id FROM 4) AS INTEGER)), 0) FROM students WHERE id ~ '^STU[0-9]+$'`
	var n int
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("max student sequence: %w", err)
	}
	return n, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	stampStudent(student)
	const query = `INSERT INTO students (id, name, email, password_hash, clerk_id, role, department, semester, cgpa, skills, phone, resume_link,
        assigned_mentor, internship_passports, employability_score, total_internships_completed, average_internship_rating,
        placement_status, created_at, updated_at)
        VALUES (:id, :name, :email, :password_hash, :clerk_id, :role, :department, :semester, :cgpa, :skills, :phone, :resume_link,
        :assigned_mentor, :internship_passports, :employability_score, :total_internships_completed, :average_internship_rating,
        :placement_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, clerk_id = :clerk_id, department = :department, semester = :semester,
        cgpa = :cgpa, skills = :skills, phone = :phone, resume_link = :resume_link, assigned_mentor = :assigned_mentor,
        internship_passports = :internship_passports, employability_score = :employability_score,
        total_internships_completed = :total_internships_completed, average_internship_rating = :average_internship_rating,
        placement_status = :placement_status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

func stampStudent(student *models.Student) {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Role == "" {
		student.Role = models.RoleStudent
	}
	if student.PlacementStatus == "" {
		student.PlacementStatus = models.PlacementActive
	}
	if student.Skills == nil {
		student.Skills = pq.StringArray{}
	}
	if student.InternshipPassports == nil {
		student.InternshipPassports = pq.StringArray{}
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
