package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/events"
	"github.com/noah-isme/campus-placement-api/pkg/export"
)

const recentApplicationsLimit = 10

var (
	errApplicationNotFound  = appErrors.Clone(appErrors.ErrNotFound, "Application not found")
	errApplicationStoreDown = appErrors.Clone(appErrors.ErrServiceUnavailable, "Database not available. Please try again later.")
	errAccessDenied         = appErrors.Clone(appErrors.ErrForbidden, "Access denied")
)

type applicationRepository interface {
	Available() bool
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error)
	MaxSequence(ctx context.Context) (int, error)
	Create(ctx context.Context, application *models.Application) error
	Update(ctx context.Context, application *models.Application) error
	Delete(ctx context.Context, id string) error
}

type applicationInternshipRepository interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error)
	FindByID(ctx context.Context, id string) (*models.Internship, error)
	AdjustApplications(ctx context.Context, id string, delta int) error
}

type applicationStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type mentorDirectory interface {
	FindMentor(ctx context.Context, id string) (*models.Mentor, error)
	ListMentors(ctx context.Context) ([]models.Mentor, error)
}

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ApplicationService runs the application lifecycle.
type ApplicationService struct {
	repo        applicationRepository
	internships applicationInternshipRepository
	students    applicationStudentRepository
	mentors     mentorDirectory
	scheduler   *NotificationScheduler
	cache       *CacheService
	publisher   events.Publisher
	renderers   map[string]datasetRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewApplicationService constructs an ApplicationService. scheduler, cache
// and publisher may be nil.
func NewApplicationService(repo applicationRepository, internships applicationInternshipRepository, students applicationStudentRepository, mentors mentorDirectory, scheduler *NotificationScheduler, cache *CacheService, publisher events.Publisher, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ApplicationService{
		repo:        repo,
		internships: internships,
		students:    students,
		mentors:     mentors,
		scheduler:   scheduler,
		cache:       cache,
		publisher:   publisher,
		renderers: map[string]datasetRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/campus-placement-api/internal/service/application"),
		now:       time.Now,
	}
}

// Apply files a student's application. A student rejected for the same
// posting within the cooldown window must wait; after it the old rejection
// is replaced.
func (s *ApplicationService) Apply(ctx context.Context, user *models.CurrentUser, req dto.CreateApplicationRequest) (*models.Application, error) {
	if !s.repo.Available() {
		return nil, errApplicationStoreDown
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Internship ID and cover letter are required")
	}
	ctx, span := s.tracer.Start(ctx, "applications.apply", trace.WithAttributes(
		attribute.String("student.id", user.ID),
		attribute.String("internship.id", req.InternshipID),
	))
	defer span.End()

	internship, err := s.internships.FindByID(ctx, req.InternshipID)
	if err != nil {
		return nil, notFoundOr(err, errInternshipNotFound.Message, "failed to load internship")
	}

	existing, err := s.repo.FindByStudentAndInternship(ctx, user.ID, req.InternshipID)
	if err != nil && !repository.IsNotFound(err) {
		span.RecordError(err)
		return nil, internalError(err, "failed to check existing application")
	}
	if existing != nil {
		if err := s.clearForReapply(ctx, existing); err != nil {
			return nil, err
		}
	}

	student := s.applicant(ctx, user)
	if ok, reason := CheckEligibility(student, internship); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, reason)
	}

	mentor := s.selectMentor(ctx, req.MentorID, student)
	now := s.now().UTC()
	application := &models.Application{
		StudentID:    user.ID,
		InternshipID: internship.ID,
		Status:       models.ApplicationApplied,
		CoverLetter:  sanitizeText(req.CoverLetter),
		IPPStatus:    models.IPPLinkNotApplicable,
		AppliedAt:    now,
	}
	mentorID := strings.TrimSpace(req.MentorID)
	if mentor != nil {
		mentorID = mentor.ID
	}
	if mentorID != "" {
		application.MentorID = mentorID
		application.Status = models.ApplicationPendingMentorApproval
	}

	_, err = insertWithSequence(ctx, repository.PrefixApplication, s.repo, func(id string) error {
		application.ID = id
		return s.repo.Create(ctx, application)
	})
	if err != nil {
		span.RecordError(err)
		return nil, internalError(err, "failed to create application")
	}
	if err := s.internships.AdjustApplications(ctx, internship.ID, 1); err != nil {
		s.logger.Warn("increment application count", zap.String("internship_id", internship.ID), zap.Error(err))
	}
	if mentor != nil && s.scheduler != nil {
		s.scheduler.ScheduleMentorApprovalReminders(ctx, application, mentor, internship, student)
	}
	s.cache.Invalidate(ctx, CacheKeyApplicationAnalytics) //nolint:errcheck
	s.cache.Invalidate(ctx, CacheKeyInternshipStats)      //nolint:errcheck
	s.publish(ctx, events.TypeApplicationCreated, application)
	s.logger.Info("application submitted",
		zap.String("application_id", application.ID),
		zap.String("student_id", user.ID),
		zap.String("internship_id", internship.ID),
		zap.String("mentor_id", application.MentorID),
	)
	return application, nil
}

func (s *ApplicationService) clearForReapply(ctx context.Context, existing *models.Application) error {
	if existing.Status != models.ApplicationRejected {
		return appErrors.Clone(appErrors.ErrValidation, "You have already applied for this internship")
	}
	if existing.RejectionTime().IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "You have already applied for this internship")
	}
	if remaining := existing.CooldownRemaining(s.now()); remaining > 0 {
		hours := int(math.Ceil(remaining.Hours()))
		return appErrors.WithDetails(appErrors.ErrCooldownActive,
			fmt.Sprintf("You were rejected for this internship. You can reapply in %d hour(s).", hours),
			map[string]interface{}{"cooldownRemaining": hours})
	}
	s.logger.Info("removing rejected application after cooldown", zap.String("application_id", existing.ID))
	if err := s.repo.Delete(ctx, existing.ID); err != nil && !repository.IsNotFound(err) {
		return internalError(err, "failed to replace rejected application")
	}
	return nil
}

// applicant returns the stored student record, falling back to the
// profile carried on the request.
func (s *ApplicationService) applicant(ctx context.Context, user *models.CurrentUser) *models.Student {
	if s.students != nil {
		if student, err := s.students.FindByID(ctx, user.ID); err == nil {
			return student
		} else if !repository.IsNotFound(err) {
			s.logger.Warn("load applicant", zap.String("student_id", user.ID), zap.Error(err))
		}
	}
	return &models.Student{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Department:     user.Department,
		Semester:       user.Semester,
		CGPA:           user.CGPA,
		Skills:         user.Skills,
		AssignedMentor: user.AssignedMentor,
	}
}

// selectMentor prefers the requested mentor, then the student's assigned
// mentor, then a mentor of the same department, then the first mentor.
func (s *ApplicationService) selectMentor(ctx context.Context, requested string, student *models.Student) *models.Mentor {
	if s.mentors == nil {
		return nil
	}
	for _, id := range []string{strings.TrimSpace(requested), student.AssignedMentor} {
		if id == "" {
			continue
		}
		mentor, err := s.mentors.FindMentor(ctx, id)
		if err == nil {
			return mentor
		}
		if !repository.IsNotFound(err) {
			s.logger.Warn("load mentor", zap.String("mentor_id", id), zap.Error(err))
		}
	}
	mentors, err := s.mentors.ListMentors(ctx)
	if err != nil {
		s.logger.Warn("list mentors", zap.Error(err))
		return nil
	}
	for i := range mentors {
		if mentors[i].Department == student.Department {
			return &mentors[i]
		}
	}
	if len(mentors) > 0 {
		return &mentors[0]
	}
	return nil
}

var departmentAliases = map[string][]string{
	"computer science":       {"cs", "cse", "computer science", "computer science and engineering", "comp sci"},
	"information technology": {"it", "information technology", "info tech"},
	"electronics":            {"ece", "electronics", "electronics and communication", "electronics and communication engineering"},
	"electrical":             {"eee", "electrical", "electrical and electronics", "electrical engineering"},
	"mechanical":             {"me", "mech", "mechanical", "mechanical engineering"},
	"civil":                  {"ce", "civil", "civil engineering"},
	"mathematics":            {"math", "maths", "mathematics", "applied mathematics"},
}

// canonicalDepartment maps a department name or alias to its canonical form.
func canonicalDepartment(dept string) string {
	dept = strings.ToLower(strings.TrimSpace(dept))
	for canonical, aliases := range departmentAliases {
		for _, alias := range aliases {
			if dept == alias {
				return canonical
			}
		}
	}
	return dept
}

// CheckEligibility applies the relaxed application rules. Incomplete
// profiles bypass every check and CS/IT students match any department.
func CheckEligibility(student *models.Student, internship *models.Internship) (bool, string) {
	if student.ProfileIncomplete() {
		return true, ""
	}
	dept := canonicalDepartment(student.Department)
	deptOK := len(internship.EligibleDepartments) == 0 ||
		dept == "computer science" || dept == "information technology"
	for _, eligible := range internship.EligibleDepartments {
		if deptOK {
			break
		}
		deptOK = canonicalDepartment(eligible) == dept
	}
	cgpaOK := internship.MinimumCGPA == 0 || student.CGPA >= internship.MinimumCGPA-1.5 || student.CGPA >= 6.0
	semesterOK := internship.MinimumSemester == 0 || student.Semester >= internship.MinimumSemester-2 || student.Semester >= 4
	if deptOK && cgpaOK && semesterOK {
		return true, ""
	}

	var reason strings.Builder
	reason.WriteString("You are not eligible for this internship.")
	if !deptOK {
		fmt.Fprintf(&reason, " Your department (%s) doesn't match the required departments.", student.Department)
	}
	if !cgpaOK {
		fmt.Fprintf(&reason, " Minimum CGPA required: %g, yours: %g.", internship.MinimumCGPA, student.CGPA)
	}
	if !semesterOK {
		fmt.Fprintf(&reason, " Minimum semester required: %d, yours: %d.", internship.MinimumSemester, student.Semester)
	}
	return false, reason.String()
}

// List returns applications visible to user's role, enriched with their
// internship and student.
func (s *ApplicationService) List(ctx context.Context, user *models.CurrentUser) ([]models.ApplicationView, error) {
	var filter models.ApplicationFilter
	switch user.Role {
	case models.RoleStudent:
		filter.StudentID = user.ID
	case models.RoleMentor:
		filter.MentorID = user.ID
	case models.RoleAdmin, models.RoleRecruiter:
	default:
		return nil, errAccessDenied
	}
	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list applications")
	}
	return s.enrich(ctx, apps)
}

// PendingForMentor returns applications awaiting the mentor's decision.
func (s *ApplicationService) PendingForMentor(ctx context.Context, mentor *models.CurrentUser) ([]models.ApplicationView, error) {
	apps, err := s.repo.List(ctx, models.ApplicationFilter{MentorID: mentor.ID, Status: models.ApplicationPendingMentorApproval})
	if err != nil {
		return nil, internalError(err, "failed to list pending applications")
	}
	return s.enrich(ctx, apps)
}

// Get returns an application the user may see.
func (s *ApplicationService) Get(ctx context.Context, user *models.CurrentUser, id string) (*models.Application, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewApplication(user, app) {
		return nil, errAccessDenied
	}
	return app, nil
}

func canViewApplication(user *models.CurrentUser, app *models.Application) bool {
	switch user.Role {
	case models.RoleStudent:
		return app.StudentID == user.ID
	case models.RoleMentor:
		return app.MentorID == user.ID
	}
	return true
}

// UpdateStatus records a mentor, recruiter or admin decision and notifies
// the student.
func (s *ApplicationService) UpdateStatus(ctx context.Context, user *models.CurrentUser, id string, req dto.UpdateApplicationStatusRequest) (*dto.ApplicationStatusResponse, error) {
	if !s.repo.Available() {
		return nil, errApplicationStoreDown
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "status is required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown application status %q", req.Status))
	}
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleMentor && app.MentorID != user.ID {
		return nil, errAccessDenied
	}

	now := s.now().UTC()
	feedback := sanitizeText(req.Feedback)
	app.Status = req.Status
	if req.Status == models.ApplicationRejected {
		app.RejectedAt = &now
	}
	if user.Role == models.RoleMentor {
		app.MentorApproval = string(models.ApplicationRejected)
		if req.Status == models.ApplicationApproved {
			app.MentorApproval = string(models.ApplicationApproved)
		}
		app.MentorFeedback = feedback
	} else if feedback != "" {
		app.Feedback = feedback
	}
	if req.InterviewDetails != nil {
		app.InterviewScheduled = req.InterviewDetails
	}
	if req.OfferDetails != nil {
		app.OfferDetails = req.OfferDetails
	}
	if feedback != "" && req.Status == models.ApplicationInterviewCompleted {
		app.InterviewFeedback = feedback
	}
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, notFoundOr(err, errApplicationNotFound.Message, "failed to update application")
	}

	internship, student := s.related(ctx, app)
	if req.Status == models.ApplicationAccepted && student != nil && student.PlacementStatus != models.PlacementPlaced {
		student.PlacementStatus = models.PlacementPlaced
		if err := s.students.Update(ctx, student); err != nil {
			s.logger.Warn("mark student placed", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	if s.scheduler != nil && student != nil && internship != nil {
		if req.InterviewDetails != nil {
			s.scheduler.ScheduleInterviewReminders(ctx, app, student, internship, req.InterviewDetails)
		}
		if req.OfferDetails != nil && req.OfferDetails.OfferExpiry != nil {
			s.scheduler.ScheduleOfferExpiryReminders(ctx, app, student, internship, req.OfferDetails)
		}
		s.scheduler.NotifyApplicationStatus(ctx, app, student, internship)
	}
	s.cache.Invalidate(ctx, CacheKeyApplicationAnalytics) //nolint:errcheck
	s.publish(ctx, events.TypeApplicationStatus, app)
	s.logger.Info("application status updated",
		zap.String("application_id", app.ID),
		zap.String("status", string(app.Status)),
		zap.String("actor_id", user.ID),
	)
	return &dto.ApplicationStatusResponse{
		Application: app,
		Student:     studentSummary(student),
		Internship:  internshipSummary(internship),
	}, nil
}

// Withdraw lets a student delete an application that no one has acted on.
func (s *ApplicationService) Withdraw(ctx context.Context, user *models.CurrentUser, id string) error {
	app, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if app.StudentID != user.ID {
		return errAccessDenied
	}
	if app.Status != models.ApplicationApplied && app.Status != models.ApplicationPendingMentorApproval {
		return appErrors.Clone(appErrors.ErrInvalidState, "Only pending applications can be withdrawn")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, errApplicationNotFound.Message, "failed to withdraw application")
	}
	if err := s.internships.AdjustApplications(ctx, app.InternshipID, -1); err != nil {
		s.logger.Warn("decrement application count", zap.String("internship_id", app.InternshipID), zap.Error(err))
	}
	s.cache.Invalidate(ctx, CacheKeyApplicationAnalytics) //nolint:errcheck
	s.cache.Invalidate(ctx, CacheKeyInternshipStats)      //nolint:errcheck
	return nil
}

// Analytics aggregates every application for the admin dashboard. The flag
// reports a cache hit.
func (s *ApplicationService) Analytics(ctx context.Context) (models.ApplicationAnalytics, bool, error) {
	analytics, hit, err := Remember(ctx, s.cache, CacheKeyApplicationAnalytics, 0, func() (models.ApplicationAnalytics, error) {
		apps, err := s.repo.List(ctx, models.ApplicationFilter{})
		if err != nil {
			return models.ApplicationAnalytics{}, err
		}
		return applicationAnalytics(apps), nil
	})
	if err != nil {
		return models.ApplicationAnalytics{}, false, internalError(err, "failed to load application analytics")
	}
	return analytics, hit, nil
}

func applicationAnalytics(apps []models.Application) models.ApplicationAnalytics {
	analytics := models.ApplicationAnalytics{
		Total:    len(apps),
		ByStatus: map[string]int{},
		ByMonth:  map[string]int{},
	}
	for _, app := range apps {
		analytics.ByStatus[string(app.Status)]++
		if !app.AppliedAt.IsZero() {
			analytics.ByMonth[app.AppliedAt.Format("Jan 2006")]++
		}
	}
	sorted := append([]models.Application(nil), apps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AppliedAt.Before(sorted[j].AppliedAt) })
	if len(sorted) > recentApplicationsLimit {
		sorted = sorted[len(sorted)-recentApplicationsLimit:]
	}
	analytics.RecentApplications = sorted
	return analytics
}

// Export renders every application as CSV or PDF.
func (s *ApplicationService) Export(ctx context.Context, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	apps, err := s.repo.List(ctx, models.ApplicationFilter{})
	if err != nil {
		return nil, internalError(err, "failed to export applications")
	}
	views, err := s.enrich(ctx, apps)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Applications",
		Headers: []string{"Application ID", "Student", "Email", "Department", "Internship", "Company", "Status", "Mentor", "Applied At"},
	}
	for _, v := range views {
		var name, email, dept, title, company string
		if v.Student != nil {
			name, email, dept = v.Student.Name, v.Student.Email, v.Student.Department
		}
		if v.Internship != nil {
			title, company = v.Internship.Title, v.Internship.Company
		}
		data.Append(v.ID, name, email, dept, title, company, string(v.Status), v.MentorID, v.AppliedAt.UTC().Format(time.RFC3339))
	}
	content, err := renderer.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("applications-%s.%s", s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        content,
	}, nil
}

func (s *ApplicationService) find(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errApplicationNotFound.Message, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) related(ctx context.Context, app *models.Application) (*models.Internship, *models.Student) {
	internship, err := s.internships.FindByID(ctx, app.InternshipID)
	if err != nil {
		s.logger.Warn("load application internship", zap.String("internship_id", app.InternshipID), zap.Error(err))
		internship = nil
	}
	var student *models.Student
	if s.students != nil {
		student, err = s.students.FindByID(ctx, app.StudentID)
		if err != nil {
			s.logger.Warn("load application student", zap.String("student_id", app.StudentID), zap.Error(err))
			student = nil
		}
	}
	return internship, student
}

func (s *ApplicationService) enrich(ctx context.Context, apps []models.Application) ([]models.ApplicationView, error) {
	views := make([]models.ApplicationView, 0, len(apps))
	if len(apps) == 0 {
		return views, nil
	}
	internships, err := s.internships.List(ctx, models.InternshipFilter{})
	if err != nil {
		return nil, internalError(err, "failed to load internships")
	}
	byID := make(map[string]*models.Internship, len(internships))
	for i := range internships {
		byID[internships[i].ID] = &internships[i]
	}
	students := map[string]*models.Student{}
	for _, app := range apps {
		view := models.ApplicationView{Application: app, Internship: internshipSummary(byID[app.InternshipID])}
		student, seen := students[app.StudentID]
		if !seen && s.students != nil {
			if found, err := s.students.FindByID(ctx, app.StudentID); err == nil {
				student = found
			}
			students[app.StudentID] = student
		}
		view.Student = studentSummary(student)
		views = append(views, view)
	}
	return views, nil
}

func (s *ApplicationService) publish(ctx context.Context, eventType string, app *models.Application) {
	payload := map[string]interface{}{
		"applicationId": app.ID,
		"studentId":     app.StudentID,
		"internshipId":  app.InternshipID,
		"status":        app.Status,
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("publish application event", zap.String("type", eventType), zap.Error(err))
	}
}

func internshipSummary(in *models.Internship) *models.ApplicationInternshipSummary {
	if in == nil {
		return nil
	}
	return &models.ApplicationInternshipSummary{
		ID:       in.ID,
		Title:    in.Title,
		Company:  in.Company,
		Location: in.Location,
		Stipend:  in.Stipend,
		Duration: in.Duration,
	}
}

func studentSummary(st *models.Student) *models.ApplicationStudentSummary {
	if st == nil {
		return nil
	}
	return &models.ApplicationStudentSummary{
		ID:         st.ID,
		Name:       st.Name,
		Email:      st.Email,
		ResumeLink: st.ResumeLink,
		Department: st.Department,
		CGPA:       st.CGPA,
		Semester:   st.Semester,
	}
}
