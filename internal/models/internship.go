package models

import (
	"time"

	"github.com/lib/pq"
)

// InternshipStatus captures the posting lifecycle.
type InternshipStatus string

const (
	InternshipDraft           InternshipStatus = "draft"
	InternshipSubmitted       InternshipStatus = "submitted"
	InternshipActive          InternshipStatus = "active"
	InternshipRejected        InternshipStatus = "rejected"
	InternshipClosed          InternshipStatus = "closed"
	InternshipPendingApproval InternshipStatus = "pending_approval"
)

// Work modes accepted for postings.
const (
	WorkModeRemote = "Remote"
	WorkModeOnSite = "On-site"
	WorkModeHybrid = "Hybrid"
)

// Internship is a role posted by an admin or submitted by a recruiter.
type Internship struct {
	ID                  string           `db:"id" json:"id"`
	Title               string           `db:"title" json:"title"`
	Company             string           `db:"company" json:"company"`
	CompanyLogo         string           `db:"company_logo" json:"companyLogo,omitempty"`
	Description         string           `db:"description" json:"description"`
	RequiredSkills      pq.StringArray   `db:"required_skills" json:"requiredSkills"`
	PreferredSkills     pq.StringArray   `db:"preferred_skills" json:"preferredSkills"`
	EligibleDepartments pq.StringArray   `db:"eligible_departments" json:"eligibleDepartments"`
	MinimumSemester     int              `db:"minimum_semester" json:"minimumSemester"`
	MinimumCGPA         float64          `db:"minimum_cgpa" json:"minimumCGPA"`
	Stipend             string           `db:"stipend" json:"stipend,omitempty"`
	Duration            string           `db:"duration" json:"duration"`
	Location            string           `db:"location" json:"location"`
	WorkMode            string           `db:"work_mode" json:"workMode"`
	ApplicationDeadline *time.Time       `db:"application_deadline" json:"applicationDeadline,omitempty"`
	StartDate           *time.Time       `db:"start_date" json:"startDate,omitempty"`
	EndDate             *time.Time       `db:"end_date" json:"endDate,omitempty"`
	MaxApplications     int              `db:"max_applications" json:"maxApplications"`
	CurrentApplications int              `db:"current_applications" json:"currentApplications"`
	Status              InternshipStatus `db:"status" json:"status"`
	CompanyDescription  string           `db:"company_description" json:"companyDescription,omitempty"`
	Requirements        pq.StringArray   `db:"requirements" json:"requirements"`
	Benefits            pq.StringArray   `db:"benefits" json:"benefits"`
	PostedBy            string           `db:"posted_by" json:"postedBy,omitempty"`
	PostedByRole        UserRole         `db:"posted_by_role" json:"postedByRole,omitempty"`
	SubmittedBy         string           `db:"submitted_by" json:"submittedBy,omitempty"`
	ApprovedBy          string           `db:"approved_by" json:"approvedBy,omitempty"`
	SubmittedAt         *time.Time       `db:"submitted_at" json:"submittedAt,omitempty"`
	ApprovedAt          *time.Time       `db:"approved_at" json:"approvedAt,omitempty"`
	AdminNotes          string           `db:"admin_notes" json:"adminNotes"`
	RecruiterNotes      string           `db:"recruiter_notes" json:"recruiterNotes"`
	RejectionReason     string           `db:"rejection_reason" json:"rejectionReason"`
	CreatedAt           time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updatedAt"`
}

// OwnedBy reports whether userID posted or submitted the internship.
func (i *Internship) OwnedBy(userID string) bool {
	return userID != "" && (i.PostedBy == userID || i.SubmittedBy == userID)
}

// InternshipFilter narrows internship listings.
type InternshipFilter struct {
	Status      InternshipStatus
	Department  string
	Skills      []string
	Location    string
	WorkMode    string
	Company     string
	OwnerID     string
	MinStipend  int
	MaxStipend  int
	Recommended bool
}

// InternshipView decorates an internship with per-student recommendation data.
type InternshipView struct {
	Internship
	RecommendationScore *int  `json:"recommendationScore,omitempty"`
	IsEligible          *bool `json:"isEligible,omitempty"`
	HasApplied          *bool `json:"hasApplied,omitempty"`
	RejectionCooldown   *int  `json:"rejectionCooldown,omitempty"`
}

// InternshipStats aggregates posting counts for the admin dashboard.
type InternshipStats struct {
	Total             int            `json:"total"`
	Active            int            `json:"active"`
	Inactive          int            `json:"inactive"`
	ByLocation        map[string]int `json:"byLocation"`
	ByCompany         map[string]int `json:"byCompany"`
	TotalApplications int            `json:"totalApplications"`
}
