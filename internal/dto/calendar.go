package dto

// CalendarFeedQuery filters the aggregated event feed. Dates accept
// YYYY-MM-DD or RFC3339.
type CalendarFeedQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Type      string `form:"type"`
}

// CalendarEventRequest creates a faculty or student personal event.
type CalendarEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,calendardate"`
	Time        string `json:"time"`
	Location    string `json:"location"`
}

// AvailabilitySlotRequest is one offered interview window.
type AvailabilitySlotRequest struct {
	Date        string `json:"date" validate:"required,calendardate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable *bool  `json:"isAvailable"`
}

// AvailabilityRequest replaces the caller's availability.
type AvailabilityRequest struct {
	Slots []AvailabilitySlotRequest `json:"slots" validate:"required,dive"`
}
