package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleAdmin     UserRole = "admin"
	RoleMentor    UserRole = "mentor"
	RoleRecruiter UserRole = "recruiter"
)

// Admin is a placement cell administrator.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"password,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Mentor is a faculty member who approves applications and assesses IPPs.
type Mentor struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Email            string         `db:"email" json:"email"`
	PasswordHash     string         `db:"password_hash" json:"password,omitempty"`
	Role             UserRole       `db:"role" json:"role"`
	Department       string         `db:"department" json:"department"`
	AssignedStudents pq.StringArray `db:"assigned_students" json:"assignedStudents"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// Recruiter posts internships on behalf of a company.
type Recruiter struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"password,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	Company      string    `db:"company" json:"company"`
	CompanyLogo  string    `db:"company_logo" json:"companyLogo,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// CurrentUser is the sanitised principal attached to a request. It never
// carries a password hash.
type CurrentUser struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Role             UserRole `json:"role"`
	ClerkID          string   `json:"clerkId,omitempty"`
	Department       string   `json:"department,omitempty"`
	Semester         int      `json:"semester,omitempty"`
	CGPA             float64  `json:"cgpa,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	AssignedMentor   string   `json:"assignedMentor,omitempty"`
	AssignedStudents []string `json:"assignedStudents,omitempty"`
	Company          string   `json:"company,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *CurrentUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CurrentUserFromStudent builds the sanitised view of a student.
func CurrentUserFromStudent(s *Student) *CurrentUser {
	if s == nil {
		return nil
	}
	u := &CurrentUser{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		Role:           RoleStudent,
		Department:     s.Department,
		Semester:       s.Semester,
		CGPA:           s.CGPA,
		Skills:         []string(s.Skills),
		AssignedMentor: s.AssignedMentor,
	}
	if s.ClerkID != nil {
		u.ClerkID = *s.ClerkID
	}
	return u
}

// CurrentUserFromAdmin builds the sanitised view of an admin.
func CurrentUserFromAdmin(a *Admin) *CurrentUser {
	if a == nil {
		return nil
	}
	return &CurrentUser{ID: a.ID, Name: a.Name, Email: a.Email, Role: RoleAdmin}
}

// CurrentUserFromMentor builds the sanitised view of a mentor.
func CurrentUserFromMentor(m *Mentor) *CurrentUser {
	if m == nil {
		return nil
	}
	return &CurrentUser{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Role:             RoleMentor,
		Department:       m.Department,
		AssignedStudents: []string(m.AssignedStudents),
	}
}

// CurrentUserFromRecruiter builds the sanitised view of a recruiter.
func CurrentUserFromRecruiter(r *Recruiter) *CurrentUser {
	if r == nil {
		return nil
	}
	return &CurrentUser{ID: r.ID, Name: r.Name, Email: r.Email, Role: RoleRecruiter, Company: r.Company}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
