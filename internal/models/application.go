package models

import (
	"database/sql/driver"
	"time"
)

// ApplicationStatus enumerates the application lifecycle.
type ApplicationStatus string

const (
	ApplicationApplied               ApplicationStatus = "applied"
	ApplicationUnderReview           ApplicationStatus = "under_review"
	ApplicationPendingMentorApproval ApplicationStatus = "pending_mentor_approval"
	ApplicationApproved              ApplicationStatus = "approved"
	ApplicationRejected              ApplicationStatus = "rejected"
	ApplicationInterviewScheduled    ApplicationStatus = "interview_scheduled"
	ApplicationInterviewed           ApplicationStatus = "interviewed"
	ApplicationInterviewCompleted    ApplicationStatus = "interview_completed"
	ApplicationOffered               ApplicationStatus = "offered"
	ApplicationAccepted              ApplicationStatus = "accepted"
	ApplicationDeclined              ApplicationStatus = "declined"
	ApplicationSelected              ApplicationStatus = "selected"
	ApplicationHired                 ApplicationStatus = "hired"
	ApplicationInterning             ApplicationStatus = "interning"
	ApplicationCompleted             ApplicationStatus = "completed"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationApplied, ApplicationUnderReview, ApplicationPendingMentorApproval,
		ApplicationApproved, ApplicationRejected, ApplicationInterviewScheduled,
		ApplicationInterviewed, ApplicationInterviewCompleted, ApplicationOffered,
		ApplicationAccepted, ApplicationDeclined, ApplicationSelected, ApplicationHired,
		ApplicationInterning, ApplicationCompleted:
		return true
	}
	return false
}

// IPPEligible reports whether an application in this status may own an IPP.
func (s ApplicationStatus) IPPEligible() bool {
	switch s {
	case ApplicationAccepted, ApplicationOffered, ApplicationApproved, ApplicationSelected, ApplicationCompleted:
		return true
	}
	return false
}

// IPP link states tracked on the application.
const (
	IPPLinkNotApplicable = "not_applicable"
	IPPLinkInProgress    = "in_progress"
	IPPLinkCompleted     = "completed"
)

// ReapplyCooldown is how long a rejected student waits before reapplying.
const ReapplyCooldown = 24 * time.Hour

// InterviewDetails is stored as JSONB on the application.
type InterviewDetails struct {
	Date        time.Time `json:"date"`
	Interviewer string    `json:"interviewer,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	MeetingLink string    `json:"meetingLink,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// Value marshals the interview to JSON for persistence.
func (d InterviewDetails) Value() (driver.Value, error) {
	return marshalJSONB("interview details", d)
}

// Scan unmarshals JSON payloads into the interview struct.
func (d *InterviewDetails) Scan(value interface{}) error {
	return scanJSONB("interview details", value, d)
}

// OfferDetails is stored as JSONB on the application.
type OfferDetails struct {
	Stipend     string     `json:"stipend,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	OfferExpiry *time.Time `json:"offerExpiry,omitempty"`
}

// Value marshals the offer to JSON for persistence.
func (d OfferDetails) Value() (driver.Value, error) {
	return marshalJSONB("offer details", d)
}

// Scan unmarshals JSON payloads into the offer struct.
func (d *OfferDetails) Scan(value interface{}) error {
	return scanJSONB("offer details", value, d)
}

// Application links a student to an internship.
type Application struct {
	ID                 string            `db:"id" json:"id"`
	StudentID          string            `db:"student_id" json:"studentId"`
	InternshipID       string            `db:"internship_id" json:"internshipId"`
	Status             ApplicationStatus `db:"status" json:"status"`
	CoverLetter        string            `db:"cover_letter" json:"coverLetter"`
	MentorID           string            `db:"mentor_id" json:"mentorId,omitempty"`
	MentorApproval     string            `db:"mentor_approval" json:"mentorApproval,omitempty"`
	MentorFeedback     string            `db:"mentor_feedback" json:"mentorFeedback,omitempty"`
	InterviewScheduled *InterviewDetails `db:"interview_scheduled" json:"interviewScheduled,omitempty"`
	InterviewFeedback  string            `db:"interview_feedback" json:"interviewFeedback,omitempty"`
	OfferDetails       *OfferDetails     `db:"offer_details" json:"offerDetails,omitempty"`
	Feedback           string            `db:"feedback" json:"feedback,omitempty"`
	IPPStatus          string            `db:"ipp_status" json:"ippStatus,omitempty"`
	IPPID              string            `db:"ipp_id" json:"ippId,omitempty"`
	AppliedAt          time.Time         `db:"applied_at" json:"appliedAt"`
	RejectedAt         *time.Time        `db:"rejected_at" json:"rejectedAt,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`
}

// RejectionTime returns when the application was rejected, falling back to
// the last update for records written before rejected_at existed.
func (a *Application) RejectionTime() time.Time {
	if a.RejectedAt != nil && !a.RejectedAt.IsZero() {
		return *a.RejectedAt
	}
	return a.UpdatedAt
}

// CooldownRemaining returns the time left before a rejected application can
// be superseded. Zero means the student may reapply.
func (a *Application) CooldownRemaining(now time.Time) time.Duration {
	if a.Status != ApplicationRejected {
		return 0
	}
	rejected := a.RejectionTime()
	if rejected.IsZero() {
		return 0
	}
	remaining := ReapplyCooldown - now.Sub(rejected)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	StudentID    string
	InternshipID string
	MentorID     string
	Status       ApplicationStatus
}

// ApplicationInternshipSummary is embedded in enriched application listings.
type ApplicationInternshipSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Stipend  string `json:"stipend,omitempty"`
	Duration string `json:"duration"`
}

// ApplicationStudentSummary is embedded in enriched application listings.
type ApplicationStudentSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	ResumeLink string  `json:"resumeLink,omitempty"`
	Department string  `json:"department"`
	CGPA       float64 `json:"cgpa"`
	Semester   int     `json:"semester"`
}

// ApplicationView is an application enriched with its internship and student.
type ApplicationView struct {
	Application
	Internship *ApplicationInternshipSummary `json:"internship"`
	Student    *ApplicationStudentSummary    `json:"student"`
}

// ApplicationAnalytics aggregates applications for the admin dashboard.
type ApplicationAnalytics struct {
	Total              int            `json:"total"`
	ByStatus           map[string]int `json:"byStatus"`
	ByMonth            map[string]int `json:"byMonth"`
	RecentApplications []Application  `json:"recentApplications"`
}
