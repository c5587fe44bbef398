package models

import (
	"time"

	"github.com/lib/pq"
)

// Placement status values for a student.
const (
	PlacementActive   = "active"
	PlacementPlaced   = "placed"
	PlacementInactive = "inactive"
)

// DepartmentUnspecified marks auto-provisioned profiles that still need
// completing.
const DepartmentUnspecified = "Not specified"

// Student represents a learner registered with the placement cell.
type Student struct {
	ID                        string         `db:"id" json:"id"`
	Name                      string         `db:"name" json:"name"`
	Email                     string         `db:"email" json:"email"`
	PasswordHash              string         `db:"password_hash" json:"password,omitempty"`
	ClerkID                   *string        `db:"clerk_id" json:"clerkId,omitempty"`
	Role                      UserRole       `db:"role" json:"role"`
	Department                string         `db:"department" json:"department"`
	Semester                  int            `db:"semester" json:"semester"`
	CGPA                      float64        `db:"cgpa" json:"cgpa"`
	Skills                    pq.StringArray `db:"skills" json:"skills"`
	Phone                     string         `db:"phone" json:"phone,omitempty"`
	ResumeLink                string         `db:"resume_link" json:"resumeLink,omitempty"`
	AssignedMentor            string         `db:"assigned_mentor" json:"assignedMentor,omitempty"`
	InternshipPassports       pq.StringArray `db:"internship_passports" json:"internshipPassports"`
	EmployabilityScore        float64        `db:"employability_score" json:"employabilityScore"`
	TotalInternshipsCompleted int            `db:"total_internships_completed" json:"totalInternshipsCompleted"`
	AverageInternshipRating   float64        `db:"average_internship_rating" json:"averageInternshipRating"`
	PlacementStatus           string         `db:"placement_status" json:"placementStatus"`
	CreatedAt                 time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt                 time.Time      `db:"updated_at" json:"updatedAt"`
}

// Sanitized returns a copy without credentials.
func (s Student) Sanitized() Student {
	s.PasswordHash = ""
	return s
}

// ProfileIncomplete reports whether academic details are still placeholders.
func (s *Student) ProfileIncomplete() bool {
	return s.Department == "" || s.Department == DepartmentUnspecified || s.CGPA == 0 || s.Semester == 0
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	Department string
	Semester   int
	MinCGPA    float64
	Skill      string
	IDs        []string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// StudentDirectoryEntry is the lightweight listing used by recruiters and
// mentors.
type StudentDirectoryEntry struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Department       string   `json:"department"`
	Semester         int      `json:"semester"`
	CGPA             float64  `json:"cgpa"`
	Skills           []string `json:"skills"`
	PlacementStatus  string   `json:"placementStatus"`
	ApplicationCount int      `json:"applicationCount"`
}
