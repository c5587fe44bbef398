package models

import (
	"database/sql/driver"
	"time"
)

// CalendarEventKind distinguishes persisted personal events.
type CalendarEventKind string

const (
	CalendarEventFaculty CalendarEventKind = "faculty"
	CalendarEventStudent CalendarEventKind = "student"
)

// Calendar feed event types.
const (
	EventTypeApplication     = "application_submitted"
	EventTypeInternshipStart = "internship_start"
	EventTypeInternshipEnd   = "internship_end"
	EventTypeInterview       = "interview"
	EventTypeDeadline        = "deadline"
	EventTypeFaculty         = "faculty_event"
	EventTypeStudent         = "student_personal_event"
)

// CalendarEvent is a faculty or student created calendar entry.
type CalendarEvent struct {
	ID          string            `db:"id" json:"id"`
	Kind        CalendarEventKind `db:"kind" json:"kind"`
	Title       string            `db:"title" json:"title"`
	Description string            `db:"description" json:"description,omitempty"`
	Date        time.Time         `db:"date" json:"date"`
	Time        string            `db:"time" json:"time,omitempty"`
	Location    string            `db:"location" json:"location,omitempty"`
	Company     string            `db:"company" json:"company,omitempty"`
	CreatedBy   string            `db:"created_by" json:"createdBy,omitempty"`
	StudentID   string            `db:"student_id" json:"studentId,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
}

// Global reports whether a faculty event is visible to every mentor.
func (e *CalendarEvent) Global() bool {
	return e.CreatedBy == ""
}

// CalendarEventFilter narrows persisted event listings.
type CalendarEventFilter struct {
	Kind      CalendarEventKind
	StudentID string
}

// AvailabilitySlot is a window a user offers for interviews.
type AvailabilitySlot struct {
	Date        time.Time `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	IsAvailable bool      `json:"isAvailable"`
}

// AvailabilitySlots is persisted as JSONB.
type AvailabilitySlots []AvailabilitySlot

// Value marshals slots to JSON for persistence.
func (s AvailabilitySlots) Value() (driver.Value, error) {
	if s == nil {
		s = AvailabilitySlots{}
	}
	return marshalJSONB("availability slots", []AvailabilitySlot(s))
}

// Scan unmarshals JSON payloads into the slot list.
func (s *AvailabilitySlots) Scan(value interface{}) error {
	return scanJSONB("availability slots", value, (*[]AvailabilitySlot)(s))
}

// Availability stores the interview slots published by one user.
type Availability struct {
	UserID    string            `db:"user_id" json:"userId"`
	Role      UserRole          `db:"role" json:"role"`
	Slots     AvailabilitySlots `db:"slots" json:"slots"`
	UpdatedAt time.Time         `db:"updated_at" json:"updatedAt"`
}

// FeedEvent is one entry in the aggregated calendar feed.
type FeedEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Company       string    `json:"company,omitempty"`
	Date          time.Time `json:"date"`
	Time          string    `json:"time,omitempty"`
	Location      string    `json:"location,omitempty"`
	ApplicationID string    `json:"applicationId,omitempty"`
	InternshipID  string    `json:"internshipId,omitempty"`
	Status        string    `json:"status,omitempty"`
	CreatedBy     string    `json:"createdBy,omitempty"`
}

// CalendarFeedSummary counts feed events by category.
type CalendarFeedSummary struct {
	Applications int `json:"applications"`
	Starts       int `json:"starts"`
	Ends         int `json:"ends"`
	Faculty      int `json:"faculty"`
}

// CalendarFeed is the response of the events endpoint.
type CalendarFeed struct {
	Events  []FeedEvent         `json:"events"`
	Total   int                 `json:"total"`
	Summary CalendarFeedSummary `json:"summary"`
}

// CalendarFeedQuery narrows the aggregated feed.
type CalendarFeedQuery struct {
	Start *time.Time
	End   *time.Time
	Type  string
}

// CalendarSummary is the dashboard view of upcoming events.
type CalendarSummary struct {
	UpcomingInterviews int        `json:"upcomingInterviews"`
	InterviewsThisWeek int        `json:"interviewsThisWeek"`
	ActiveDeadlines    int        `json:"activeDeadlines"`
	UrgentDeadlines    int        `json:"urgentDeadlines"`
	PendingOffers      int        `json:"pendingOffers"`
	NextEvent          *FeedEvent `json:"nextEvent"`
}
