package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/export"
)

var (
	errEventNotFound = appErrors.Clone(appErrors.ErrNotFound, "Event not found")
	leadingNumber    = regexp.MustCompile(`^\s*(\d+)`)
)

type calendarRepository interface {
	ListEvents(ctx context.Context, filter models.CalendarEventFilter) ([]models.CalendarEvent, error)
	FindEvent(ctx context.Context, kind models.CalendarEventKind, id string) (*models.CalendarEvent, error)
	CreateEvent(ctx context.Context, event *models.CalendarEvent) error
	DeleteEvent(ctx context.Context, kind models.CalendarEventKind, id string) error
	GetAvailability(ctx context.Context, userID string) (*models.Availability, error)
	SaveAvailability(ctx context.Context, availability *models.Availability) error
}

type calendarApplicationLister interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
}

type calendarInternshipRepository interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error)
	FindByID(ctx context.Context, id string) (*models.Internship, error)
}

type calendarStudentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CalendarService aggregates application, internship and personal events
// into calendar feeds and ICS exports.
type CalendarService struct {
	repo         calendarRepository
	applications calendarApplicationLister
	internships  calendarInternshipRepository
	students     calendarStudentFinder
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewCalendarService constructs the service.
func NewCalendarService(repo calendarRepository, applications calendarApplicationLister, internships calendarInternshipRepository, students calendarStudentFinder, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CalendarService{
		repo:         repo,
		applications: applications,
		internships:  internships,
		students:     students,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
	svc.validator.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := parseCalendarDate(fl.Field().String())
		return err == nil
	})
	return svc
}

// Feed builds the caller's event feed: application submissions, internship
// start and end dates, visible faculty events and the student's own events.
func (s *CalendarService) Feed(ctx context.Context, user *models.CurrentUser, query dto.CalendarFeedQuery) (*models.CalendarFeed, error) {
	filter, err := feedFilter(query)
	if err != nil {
		return nil, err
	}
	apps, err := s.applicationsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	internships := s.internshipsByID(ctx, apps)

	var events []models.FeedEvent
	names := map[string]string{}
	for _, app := range apps {
		internship := internships[app.InternshipID]
		company, title := "Unknown Company", "Unknown Role"
		if internship != nil {
			company, title = internship.Company, internship.Title
		}
		eventTitle := "Applied: " + title
		if user.Role != models.RoleStudent {
			eventTitle = s.studentName(ctx, names, app.StudentID) + " - " + title
		}
		events = append(events, models.FeedEvent{
			ID:            "app-" + app.ID,
			Type:          models.EventTypeApplication,
			Title:         eventTitle,
			Company:       company,
			Date:          app.AppliedAt,
			Time:          app.AppliedAt.Format("03:04 PM"),
			Location:      "Online",
			ApplicationID: app.ID,
			Status:        string(app.Status),
		})
		if internship == nil || internship.StartDate == nil || !placedStatus(app.Status) {
			continue
		}
		location := orDefault(internship.Location, "On-site")
		events = append(events, models.FeedEvent{
			ID:           "start-" + app.ID,
			Type:         models.EventTypeInternshipStart,
			Title:        "Starts: " + title,
			Company:      company,
			Date:         *internship.StartDate,
			Time:         "09:00 AM",
			Location:     location,
			InternshipID: internship.ID,
		})
		if end, ok := internshipEnd(*internship.StartDate, internship.Duration); ok {
			events = append(events, models.FeedEvent{
				ID:           "end-" + app.ID,
				Type:         models.EventTypeInternshipEnd,
				Title:        "Ends: " + title,
				Company:      company,
				Date:         end,
				Time:         "05:00 PM",
				Location:     location,
				InternshipID: internship.ID,
			})
		}
	}

	faculty, err := s.facultyEventsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, e := range faculty {
		events = append(events, feedEvent(e, models.EventTypeFaculty, e.Company))
	}
	if user.Role == models.RoleStudent {
		personal, err := s.repo.ListEvents(ctx, models.CalendarEventFilter{Kind: models.CalendarEventStudent, StudentID: user.ID})
		if err != nil {
			return nil, internalError(err, "failed to load personal events")
		}
		for _, e := range personal {
			events = append(events, feedEvent(e, models.EventTypeStudent, orDefault(e.Company, "Personal")))
		}
	}

	filtered := make([]models.FeedEvent, 0, len(events))
	for _, e := range events {
		if filter.Start != nil && e.Date.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && e.Date.After(*filter.End) {
			continue
		}
		if filter.Type != "" && filter.Type != "all" && e.Type != filter.Type {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date.Before(filtered[j].Date) })

	feed := &models.CalendarFeed{Events: filtered, Total: len(filtered)}
	for _, e := range filtered {
		switch e.Type {
		case models.EventTypeApplication:
			feed.Summary.Applications++
		case models.EventTypeInternshipStart:
			feed.Summary.Starts++
		case models.EventTypeInternshipEnd:
			feed.Summary.Ends++
		case models.EventTypeFaculty:
			feed.Summary.Faculty++
		}
	}
	return feed, nil
}

// CreateFacultyEvent adds a university event owned by the calling mentor or
// admin.
func (s *CalendarService) CreateFacultyEvent(ctx context.Context, user *models.CurrentUser, req dto.CalendarEventRequest) (*models.CalendarEvent, error) {
	if user == nil || (user.Role != models.RoleMentor && user.Role != models.RoleAdmin) {
		return nil, errAccessDenied
	}
	event, err := s.newEvent(req)
	if err != nil {
		return nil, err
	}
	event.Kind = models.CalendarEventFaculty
	event.Time = orDefault(event.Time, "12:00 PM")
	event.Location = orDefault(event.Location, "TBD")
	event.Company = "University Event"
	event.CreatedBy = user.ID
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, internalError(err, "failed to create event")
	}
	s.logger.Info("faculty event created", zap.String("event_id", event.ID), zap.String("created_by", user.ID))
	return event, nil
}

// DeleteFacultyEvent removes a faculty event. Mentors may only remove their
// own events.
func (s *CalendarService) DeleteFacultyEvent(ctx context.Context, user *models.CurrentUser, id string) error {
	if user == nil || (user.Role != models.RoleMentor && user.Role != models.RoleAdmin) {
		return errAccessDenied
	}
	event, err := s.repo.FindEvent(ctx, models.CalendarEventFaculty, id)
	if err != nil {
		return notFoundOr(err, errEventNotFound.Message, "failed to load event")
	}
	if user.Role == models.RoleMentor && event.CreatedBy != user.ID {
		return errAccessDenied
	}
	if err := s.repo.DeleteEvent(ctx, models.CalendarEventFaculty, id); err != nil {
		return notFoundOr(err, errEventNotFound.Message, "failed to delete event")
	}
	return nil
}

// CreateStudentEvent adds a personal event for the calling student.
func (s *CalendarService) CreateStudentEvent(ctx context.Context, user *models.CurrentUser, req dto.CalendarEventRequest) (*models.CalendarEvent, error) {
	if user == nil || user.Role != models.RoleStudent {
		return nil, errAccessDenied
	}
	event, err := s.newEvent(req)
	if err != nil {
		return nil, err
	}
	event.Kind = models.CalendarEventStudent
	event.Time = orDefault(event.Time, "All Day")
	event.Location = orDefault(event.Location, "Personal")
	event.Company = "Personal Event"
	event.StudentID = user.ID
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, internalError(err, "failed to create event")
	}
	return event, nil
}

// DeleteStudentEvent removes one of the caller's personal events. Events of
// other students are reported as not found.
func (s *CalendarService) DeleteStudentEvent(ctx context.Context, user *models.CurrentUser, id string) error {
	if user == nil || user.Role != models.RoleStudent {
		return errAccessDenied
	}
	event, err := s.repo.FindEvent(ctx, models.CalendarEventStudent, id)
	if err != nil {
		return notFoundOr(err, errEventNotFound.Message, "failed to load event")
	}
	if event.StudentID != user.ID {
		return errEventNotFound
	}
	if err := s.repo.DeleteEvent(ctx, models.CalendarEventStudent, id); err != nil {
		return notFoundOr(err, errEventNotFound.Message, "failed to delete event")
	}
	return nil
}

func (s *CalendarService) newEvent(req dto.CalendarEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Title and date (YYYY-MM-DD or RFC3339) are required")
	}
	date, err := parseCalendarDate(req.Date)
	if err != nil {
		return nil, validationError(err, "date must be YYYY-MM-DD or RFC3339")
	}
	return &models.CalendarEvent{
		Title:       sanitizeText(req.Title),
		Description: sanitizeText(req.Description),
		Date:        date,
		Time:        strings.TrimSpace(req.Time),
		Location:    strings.TrimSpace(req.Location),
	}, nil
}

// Summary counts upcoming interviews, open deadlines and pending offers and
// picks the next upcoming interview or deadline.
func (s *CalendarService) Summary(ctx context.Context, user *models.CurrentUser) (*models.CalendarSummary, error) {
	apps, err := s.applicationsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	active, err := s.internships.List(ctx, models.InternshipFilter{Status: models.InternshipActive})
	if err != nil {
		return nil, internalError(err, "failed to load internships")
	}
	now := s.now()
	weekAhead := now.Add(7 * 24 * time.Hour)
	summary := &models.CalendarSummary{}
	var next *models.FeedEvent
	consider := func(e models.FeedEvent) {
		if next == nil || e.Date.Before(next.Date) {
			ev := e
			next = &ev
		}
	}

	for _, app := range apps {
		if app.InterviewScheduled != nil && !app.InterviewScheduled.Date.Before(now) {
			summary.UpcomingInterviews++
			if !app.InterviewScheduled.Date.After(weekAhead) {
				summary.InterviewsThisWeek++
			}
			consider(models.FeedEvent{
				ID:            "interview-" + app.ID,
				Type:          models.EventTypeInterview,
				Title:         "Interview",
				Date:          app.InterviewScheduled.Date,
				Location:      interviewLocation(app.InterviewScheduled),
				ApplicationID: app.ID,
			})
		}
		if app.Status == models.ApplicationOffered && app.OfferDetails != nil && app.OfferDetails.OfferExpiry != nil {
			summary.PendingOffers++
		}
	}
	for _, internship := range active {
		deadline := internship.ApplicationDeadline
		if deadline == nil || deadline.Before(now) {
			continue
		}
		summary.ActiveDeadlines++
		if days := math.Ceil(deadline.Sub(now).Hours() / 24); days <= 3 {
			summary.UrgentDeadlines++
		}
		consider(models.FeedEvent{
			ID:           "deadline-" + internship.ID,
			Type:         models.EventTypeDeadline,
			Title:        "Application Deadline - " + internship.Title,
			Company:      internship.Company,
			Date:         *deadline,
			InternshipID: internship.ID,
		})
	}
	summary.NextEvent = next
	return summary, nil
}

// SaveAvailability replaces the caller's interview slots. Slots default to
// available.
func (s *CalendarService) SaveAvailability(ctx context.Context, user *models.CurrentUser, req dto.AvailabilityRequest) (*models.Availability, error) {
	if user == nil {
		return nil, errAccessDenied
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Slots array is required")
	}
	slots := make(models.AvailabilitySlots, 0, len(req.Slots))
	for _, slot := range req.Slots {
		date, err := parseCalendarDate(slot.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "slot date must be YYYY-MM-DD or RFC3339")
		}
		slots = append(slots, models.AvailabilitySlot{
			Date:        date,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			IsAvailable: slot.IsAvailable == nil || *slot.IsAvailable,
		})
	}
	availability := &models.Availability{UserID: user.ID, Role: user.Role, Slots: slots}
	if err := s.repo.SaveAvailability(ctx, availability); err != nil {
		return nil, internalError(err, "failed to save availability")
	}
	return availability, nil
}

// GetAvailability returns a user's future slots. Unknown users have none.
func (s *CalendarService) GetAvailability(ctx context.Context, userID string) (*models.Availability, error) {
	availability, err := s.repo.GetAvailability(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &models.Availability{UserID: userID, Slots: models.AvailabilitySlots{}}, nil
		}
		return nil, internalError(err, "failed to load availability")
	}
	now := s.now()
	future := make(models.AvailabilitySlots, 0, len(availability.Slots))
	for _, slot := range availability.Slots {
		if !slot.Date.Before(now) {
			future = append(future, slot)
		}
	}
	availability.Slots = future
	return availability, nil
}

// ExportICS renders interviews, open application deadlines and visible
// faculty events as an iCalendar document.
func (s *CalendarService) ExportICS(ctx context.Context, user *models.CurrentUser) ([]byte, error) {
	apps, err := s.applicationsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	active, err := s.internships.List(ctx, models.InternshipFilter{Status: models.InternshipActive})
	if err != nil {
		return nil, internalError(err, "failed to load internships")
	}
	faculty, err := s.facultyEventsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	internships := s.internshipsByID(ctx, apps)
	now := s.now()

	cal := export.NewICSCalendar("CampusBuddy Events")
	for _, app := range apps {
		interview := app.InterviewScheduled
		if interview == nil {
			continue
		}
		title, company := "Unknown", "Unknown Company"
		if internship := internships[app.InternshipID]; internship != nil {
			title, company = internship.Title, internship.Company
		}
		where := "Location: " + orDefault(interview.Location, "TBD")
		if interview.Mode == "online" {
			where = "Online Interview"
		}
		cal.AddEvent(export.ICSEvent{
			UID:         "interview-" + app.ID + "@campusbuddy",
			Start:       interview.Date,
			Summary:     "Interview - " + title,
			Description: "Interview at " + company + "\n" + where,
			URL:         interview.MeetingLink,
			Location:    interviewLocation(interview),
		})
	}
	for _, internship := range active {
		deadline := internship.ApplicationDeadline
		if deadline == nil || deadline.Before(now) {
			continue
		}
		cal.AddEvent(export.ICSEvent{
			UID:         "deadline-" + internship.ID + "@campusbuddy",
			Start:       *deadline,
			Summary:     "Application Deadline - " + internship.Title,
			Description: fmt.Sprintf("Application deadline for %s at %s", internship.Title, internship.Company),
		})
	}
	for _, e := range faculty {
		cal.AddEvent(export.ICSEvent{
			UID:         e.ID + "@campusbuddy",
			Start:       e.Date,
			Summary:     e.Title,
			Description: orDefault(e.Description, "University Event"),
			Location:    orDefault(e.Location, "Campus"),
		})
	}
	return cal.Bytes(), nil
}

func (s *CalendarService) applicationsFor(ctx context.Context, user *models.CurrentUser) ([]models.Application, error) {
	if user == nil {
		return nil, errAccessDenied
	}
	var filter models.ApplicationFilter
	switch user.Role {
	case models.RoleStudent:
		filter.StudentID = user.ID
	case models.RoleMentor:
		filter.MentorID = user.ID
	case models.RoleAdmin, models.RoleRecruiter:
	default:
		return nil, nil
	}
	apps, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to load applications")
	}
	return apps, nil
}

// facultyEventsFor returns every faculty event for admins and recruiters and
// the mentor's own plus global events for mentors.
func (s *CalendarService) facultyEventsFor(ctx context.Context, user *models.CurrentUser) ([]models.CalendarEvent, error) {
	events, err := s.repo.ListEvents(ctx, models.CalendarEventFilter{Kind: models.CalendarEventFaculty})
	if err != nil {
		return nil, internalError(err, "failed to load faculty events")
	}
	if user.Role != models.RoleMentor {
		return events, nil
	}
	visible := events[:0]
	for _, e := range events {
		if e.Global() || e.CreatedBy == user.ID {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

func (s *CalendarService) internshipsByID(ctx context.Context, apps []models.Application) map[string]*models.Internship {
	out := map[string]*models.Internship{}
	for _, app := range apps {
		if _, seen := out[app.InternshipID]; seen {
			continue
		}
		internship, err := s.internships.FindByID(ctx, app.InternshipID)
		if err != nil {
			if !repository.IsNotFound(err) {
				s.logger.Warn("load internship for calendar", zap.String("internship_id", app.InternshipID), zap.Error(err))
			}
			out[app.InternshipID] = nil
			continue
		}
		out[app.InternshipID] = internship
	}
	return out
}

func (s *CalendarService) studentName(ctx context.Context, cache map[string]string, id string) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := "Unknown Student"
	if s.students != nil {
		if student, err := s.students.FindByID(ctx, id); err == nil && student.Name != "" {
			name = student.Name
		}
	}
	cache[id] = name
	return name
}

func feedFilter(query dto.CalendarFeedQuery) (models.CalendarFeedQuery, error) {
	filter := models.CalendarFeedQuery{Type: strings.TrimSpace(query.Type)}
	if query.StartDate != "" {
		start, err := parseCalendarDate(query.StartDate)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD or RFC3339")
		}
		filter.Start = &start
	}
	if query.EndDate != "" {
		end, err := parseCalendarDate(query.EndDate)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD or RFC3339")
		}
		filter.End = &end
	}
	return filter, nil
}

func feedEvent(e models.CalendarEvent, eventType, company string) models.FeedEvent {
	return models.FeedEvent{
		ID:          e.ID,
		Type:        eventType,
		Title:       e.Title,
		Description: e.Description,
		Company:     company,
		Date:        e.Date,
		Time:        e.Time,
		Location:    e.Location,
		CreatedBy:   e.CreatedBy,
	}
}

func placedStatus(status models.ApplicationStatus) bool {
	switch status {
	case models.ApplicationOffered, models.ApplicationAccepted, models.ApplicationApproved, models.ApplicationSelected,
		models.ApplicationHired, models.ApplicationInterning, models.ApplicationCompleted:
		return true
	}
	return false
}

// internshipEnd derives the end date from a duration such as "12 weeks" or
// "6 months". A bare number counts months.
func internshipEnd(start time.Time, duration string) (time.Time, bool) {
	match := leadingNumber.FindStringSubmatch(duration)
	if match == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}
	if strings.Contains(strings.ToLower(duration), "week") {
		return start.AddDate(0, 0, 7*n), true
	}
	return start.AddDate(0, n, 0), true
}

func interviewLocation(interview *models.InterviewDetails) string {
	if interview.Mode == "online" {
		return "Online"
	}
	return orDefault(interview.Location, "TBD")
}

func parseCalendarDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", value)
}
