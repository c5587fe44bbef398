package service

import (
	"context"
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
	"github.com/noah-isme/campus-placement-api/pkg/events"
)

const (
	defaultMinimumSemester = 4
	defaultMinimumCGPA     = 6.0
	defaultMaxApplications = 50
	statusAll              = "all"
)

var stipendAmount = regexp.MustCompile(`(\d+,?\d*)`)

var errInternshipNotFound = appErrors.Clone(appErrors.ErrNotFound, "Internship not found")

type internshipRepository interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error)
	FindByID(ctx context.Context, id string) (*models.Internship, error)
	MaxSequence(ctx context.Context) (int, error)
	Create(ctx context.Context, internship *models.Internship) error
	Update(ctx context.Context, internship *models.Internship) error
	Delete(ctx context.Context, id string) error
}

type eligibleStudentFinder interface {
	ListEligible(ctx context.Context, departments []string, minCGPA float64, minSemester int) ([]models.Student, error)
}

type recruiterFinder interface {
	FindRecruiter(ctx context.Context, id string) (*models.Recruiter, error)
}

// InternshipService manages postings and their review workflow.
type InternshipService struct {
	repo         internshipRepository
	students     eligibleStudentFinder
	applications applicationLister
	recruiters   recruiterFinder
	scheduler    *NotificationScheduler
	audit        *AuditService
	cache        *CacheService
	publisher    events.Publisher
	ownership    OwnershipChecker
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewInternshipService constructs an InternshipService. scheduler, audit,
// cache and publisher may be nil.
func NewInternshipService(repo internshipRepository, students eligibleStudentFinder, applications applicationLister, recruiters recruiterFinder, scheduler *NotificationScheduler, audit *AuditService, cache *CacheService, publisher events.Publisher, validate *validator.Validate, logger *zap.Logger) *InternshipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &InternshipService{
		repo:         repo,
		students:     students,
		applications: applications,
		recruiters:   recruiters,
		scheduler:    scheduler,
		audit:        audit,
		cache:        cache,
		publisher:    publisher,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

// List returns postings matching query. Students get recommendation data on
// every posting.
func (s *InternshipService) List(ctx context.Context, user *models.CurrentUser, query dto.InternshipQuery) ([]models.InternshipView, error) {
	status := models.InternshipStatus(strings.TrimSpace(query.Status))
	switch status {
	case "":
		status = models.InternshipActive
	case statusAll:
		status = ""
	}
	if status == models.InternshipSubmitted && !user.IsAdmin() {
		return []models.InternshipView{}, nil
	}

	items, err := s.repo.List(ctx, models.InternshipFilter{Status: status})
	if err != nil {
		return nil, internalError(err, "failed to list internships")
	}
	filter := models.InternshipFilter{
		Department: strings.TrimSpace(query.Department),
		Skills:     splitList(query.Skills),
		Location:   strings.TrimSpace(query.Location),
		WorkMode:   strings.TrimSpace(query.WorkMode),
		Company:    strings.TrimSpace(query.Company),
		MinStipend: query.MinStipend,
		MaxStipend: query.MaxStipend,
	}
	matched := items[:0]
	for _, in := range items {
		if matchInternship(filter, &in) {
			matched = append(matched, in)
		}
	}

	views, err := s.decorate(ctx, user, matched)
	if err != nil {
		return nil, err
	}
	if query.Recommended && user != nil && user.Role == models.RoleStudent {
		sort.SliceStable(views, func(i, j int) bool {
			return *views[i].RecommendationScore > *views[j].RecommendationScore
		})
	}
	return views, nil
}

// Get returns one posting, decorated for students.
func (s *InternshipService) Get(ctx context.Context, user *models.CurrentUser, id string) (*models.InternshipView, error) {
	internship, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.decorate(ctx, user, []models.Internship{*internship})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// MyPostings returns the postings a recruiter posted or submitted.
func (s *InternshipService) MyPostings(ctx context.Context, user *models.CurrentUser) ([]models.Internship, error) {
	items, err := s.repo.List(ctx, models.InternshipFilter{OwnerID: user.ID})
	if err != nil {
		return nil, internalError(err, "failed to list postings")
	}
	return items, nil
}

// Pending returns submissions awaiting admin review.
func (s *InternshipService) Pending(ctx context.Context) ([]models.Internship, error) {
	items, err := s.repo.List(ctx, models.InternshipFilter{Status: models.InternshipSubmitted})
	if err != nil {
		return nil, internalError(err, "failed to list pending internships")
	}
	return items, nil
}

// Create posts an active internship on behalf of an admin.
func (s *InternshipService) Create(ctx context.Context, admin *models.CurrentUser, req dto.InternshipPayload) (*models.Internship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Missing required fields: title, company, description, requiredSkills, eligibleDepartments")
	}
	if strings.TrimSpace(req.Company) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing required fields: title, company, description, requiredSkills, eligibleDepartments")
	}
	internship, err := s.build(req)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	internship.Company = strings.TrimSpace(req.Company)
	internship.CompanyLogo = req.CompanyLogo
	internship.Status = models.InternshipActive
	internship.PostedBy = admin.ID
	internship.PostedByRole = admin.Role
	internship.ApprovedBy = admin.ID
	internship.ApprovedAt = &now

	if err := s.insert(ctx, internship); err != nil {
		return nil, err
	}

	if internship.ApplicationDeadline != nil && s.scheduler != nil && s.students != nil {
		students, err := s.students.ListEligible(ctx, internship.EligibleDepartments, internship.MinimumCGPA, internship.MinimumSemester)
		if err != nil {
			s.logger.Warn("eligible students unavailable, deadline reminders skipped", zap.String("internship_id", internship.ID), zap.Error(err))
		} else if len(students) > 0 {
			count := s.scheduler.ScheduleDeadlineReminders(ctx, internship, students)
			s.logger.Info("deadline reminders scheduled", zap.String("internship_id", internship.ID), zap.Int("count", count))
		}
	}
	s.audit.LogAdminAction(ctx, admin.ID, models.AuditActionCreateInternship, models.AuditDetails{
		"internshipId": internship.ID,
		"title":        internship.Title,
		"company":      internship.Company,
	})
	s.changed(ctx, internship)
	return internship, nil
}

// Submit records a recruiter's posting for admin approval. The company is
// taken from the recruiter profile.
func (s *InternshipService) Submit(ctx context.Context, recruiter *models.CurrentUser, req dto.InternshipPayload) (*models.Internship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "Missing required fields: title, description, requiredSkills, eligibleDepartments")
	}
	internship, err := s.build(req)
	if err != nil {
		return nil, err
	}
	internship.Company = recruiter.Company
	if s.recruiters != nil {
		if profile, err := s.recruiters.FindRecruiter(ctx, recruiter.ID); err == nil {
			internship.Company = profile.Company
			internship.CompanyLogo = profile.CompanyLogo
		} else if !repository.IsNotFound(err) {
			s.logger.Warn("recruiter profile unavailable", zap.String("recruiter_id", recruiter.ID), zap.Error(err))
		}
	}
	if internship.Company == "" {
		internship.Company = "Company Name"
	}
	now := s.now().UTC()
	internship.Status = models.InternshipSubmitted
	internship.SubmittedBy = recruiter.ID
	internship.SubmittedAt = &now
	internship.RecruiterNotes = req.RecruiterNotes

	if err := s.insert(ctx, internship); err != nil {
		return nil, err
	}
	s.logger.Info("internship submitted", zap.String("internship_id", internship.ID), zap.String("recruiter_id", recruiter.ID))
	s.changed(ctx, internship)
	return internship, nil
}

// Approve activates a submitted posting.
func (s *InternshipService) Approve(ctx context.Context, admin *models.CurrentUser, id string, req dto.ReviewInternshipRequest) (*models.Internship, error) {
	internship, err := s.submitted(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	internship.Status = models.InternshipActive
	internship.PostedBy = internship.SubmittedBy
	internship.PostedByRole = models.RoleRecruiter
	internship.ApprovedBy = admin.ID
	internship.ApprovedAt = &now
	internship.AdminNotes = req.AdminNotes
	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, internalError(err, "failed to approve internship")
	}
	s.audit.LogAdminAction(ctx, admin.ID, models.AuditActionApproveInternship, models.AuditDetails{
		"internshipId": internship.ID,
		"title":        internship.Title,
		"submittedBy":  internship.SubmittedBy,
		"adminNotes":   req.AdminNotes,
	})
	s.changed(ctx, internship)
	return internship, nil
}

// Reject declines a submitted posting. A reason is required.
func (s *InternshipService) Reject(ctx context.Context, admin *models.CurrentUser, id string, req dto.ReviewInternshipRequest) (*models.Internship, error) {
	reason := strings.TrimSpace(req.RejectionReason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Rejection reason is required")
	}
	internship, err := s.submitted(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	internship.Status = models.InternshipRejected
	internship.ApprovedBy = admin.ID
	internship.ApprovedAt = &now
	internship.AdminNotes = req.AdminNotes
	internship.RejectionReason = reason
	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, internalError(err, "failed to reject internship")
	}
	s.audit.LogAdminAction(ctx, admin.ID, models.AuditActionRejectInternship, models.AuditDetails{
		"internshipId":    internship.ID,
		"title":           internship.Title,
		"submittedBy":     internship.SubmittedBy,
		"rejectionReason": reason,
		"adminNotes":      req.AdminNotes,
	})
	s.changed(ctx, internship)
	return internship, nil
}

// Update applies a partial edit. Recruiters may only edit their own
// postings and not while they await review.
func (s *InternshipService) Update(ctx context.Context, user *models.CurrentUser, id string, req dto.UpdateInternshipRequest) (*models.Internship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid internship payload")
	}
	internship, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.ownership.CanManageInternship(user, internship) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only manage your own internships")
	}
	if user.Role == models.RoleRecruiter && internship.Status == models.InternshipSubmitted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Cannot edit internship while it is pending approval.")
	}
	if err := applyInternshipUpdate(internship, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, internalError(err, "failed to update internship")
	}
	if user.IsAdmin() {
		s.audit.LogAdminAction(ctx, user.ID, models.AuditActionUpdateInternship, models.AuditDetails{
			"internshipId": internship.ID,
			"title":        internship.Title,
		})
	}
	s.changed(ctx, internship)
	return internship, nil
}

// Delete removes a posting owned by user.
func (s *InternshipService) Delete(ctx context.Context, user *models.CurrentUser, id string) (*models.Internship, error) {
	internship, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.ownership.CanManageInternship(user, internship) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only manage your own internships")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, errInternshipNotFound.Message, "failed to delete internship")
	}
	if user.IsAdmin() {
		s.audit.LogAdminAction(ctx, user.ID, models.AuditActionDeleteInternship, models.AuditDetails{
			"internshipId": internship.ID,
			"title":        internship.Title,
		})
	}
	s.cache.Invalidate(ctx, CacheKeyInternshipStats) //nolint:errcheck
	return internship, nil
}

// Stats aggregates postings for the admin dashboard. The flag reports a
// cache hit.
func (s *InternshipService) Stats(ctx context.Context) (models.InternshipStats, bool, error) {
	stats, hit, err := Remember(ctx, s.cache, CacheKeyInternshipStats, 0, func() (models.InternshipStats, error) {
		items, err := s.repo.List(ctx, models.InternshipFilter{})
		if err != nil {
			return models.InternshipStats{}, err
		}
		return internshipStats(items), nil
	})
	if err != nil {
		return models.InternshipStats{}, false, internalError(err, "failed to load internship stats")
	}
	return stats, hit, nil
}

func internshipStats(items []models.Internship) models.InternshipStats {
	stats := models.InternshipStats{
		Total:      len(items),
		ByLocation: map[string]int{},
		ByCompany:  map[string]int{},
	}
	for _, in := range items {
		switch in.Status {
		case models.InternshipActive:
			stats.Active++
		case models.InternshipClosed:
			stats.Inactive++
		}
		if in.Location != "" {
			stats.ByLocation[in.Location]++
		}
		if in.Company != "" {
			stats.ByCompany[in.Company]++
		}
		stats.TotalApplications += in.CurrentApplications
	}
	return stats
}

func (s *InternshipService) find(ctx context.Context, id string) (*models.Internship, error) {
	internship, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errInternshipNotFound.Message, "failed to load internship")
	}
	return internship, nil
}

func (s *InternshipService) submitted(ctx context.Context, id string) (*models.Internship, error) {
	internship, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if internship.Status != models.InternshipSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Internship is not in submitted status")
	}
	return internship, nil
}

func (s *InternshipService) insert(ctx context.Context, internship *models.Internship) error {
	_, err := insertWithSequence(ctx, repository.PrefixInternship, s.repo, func(id string) error {
		internship.ID = id
		return s.repo.Create(ctx, internship)
	})
	if err != nil {
		return internalError(err, "failed to create internship")
	}
	return nil
}

func (s *InternshipService) changed(ctx context.Context, internship *models.Internship) {
	s.cache.Invalidate(ctx, CacheKeyInternshipStats) //nolint:errcheck
	payload := map[string]interface{}{
		"internshipId": internship.ID,
		"status":       internship.Status,
		"company":      internship.Company,
	}
	if err := s.publisher.Publish(ctx, events.TypeInternshipStatus, payload); err != nil {
		s.logger.Warn("publish internship status", zap.String("internship_id", internship.ID), zap.Error(err))
	}
}

func (s *InternshipService) build(req dto.InternshipPayload) (*models.Internship, error) {
	deadline, err := parseFlexibleDate(req.ApplicationDeadline)
	if err != nil {
		return nil, err
	}
	start, err := parseFlexibleDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseFlexibleDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	internship := &models.Internship{
		Title:               sanitizeText(req.Title),
		Description:         sanitizeText(req.Description),
		RequiredSkills:      cleanSkills(req.RequiredSkills),
		PreferredSkills:     cleanSkills(req.PreferredSkills),
		EligibleDepartments: cleanSkills(req.EligibleDepartments),
		MinimumSemester:     req.MinimumSemester,
		MinimumCGPA:         req.MinimumCGPA,
		Stipend:             strings.TrimSpace(req.Stipend),
		Duration:            strings.TrimSpace(req.Duration),
		Location:            strings.TrimSpace(req.Location),
		WorkMode:            req.WorkMode,
		ApplicationDeadline: deadline,
		StartDate:           start,
		EndDate:             end,
		MaxApplications:     req.MaxApplications,
		CompanyDescription:  sanitizeText(req.CompanyDescription),
		Requirements:        cleanSkills(req.Requirements),
		Benefits:            cleanSkills(req.Benefits),
	}
	if internship.MinimumSemester == 0 {
		internship.MinimumSemester = defaultMinimumSemester
	}
	if internship.MinimumCGPA == 0 {
		internship.MinimumCGPA = defaultMinimumCGPA
	}
	if internship.MaxApplications == 0 {
		internship.MaxApplications = defaultMaxApplications
	}
	if internship.WorkMode == "" {
		internship.WorkMode = models.WorkModeOnSite
	}
	return internship, nil
}

func applyInternshipUpdate(in *models.Internship, req dto.UpdateInternshipRequest) error {
	if req.Title != nil {
		in.Title = sanitizeText(*req.Title)
	}
	if req.Description != nil {
		in.Description = sanitizeText(*req.Description)
	}
	if req.RequiredSkills != nil {
		in.RequiredSkills = cleanSkills(*req.RequiredSkills)
	}
	if req.PreferredSkills != nil {
		in.PreferredSkills = cleanSkills(*req.PreferredSkills)
	}
	if req.EligibleDepartments != nil {
		in.EligibleDepartments = cleanSkills(*req.EligibleDepartments)
	}
	if req.MinimumSemester != nil {
		in.MinimumSemester = *req.MinimumSemester
	}
	if req.MinimumCGPA != nil {
		in.MinimumCGPA = *req.MinimumCGPA
	}
	if req.Stipend != nil {
		in.Stipend = strings.TrimSpace(*req.Stipend)
	}
	if req.Duration != nil {
		in.Duration = strings.TrimSpace(*req.Duration)
	}
	if req.Location != nil {
		in.Location = strings.TrimSpace(*req.Location)
	}
	if req.WorkMode != nil {
		in.WorkMode = *req.WorkMode
	}
	dates := []struct {
		raw *string
		dst **time.Time
	}{
		{req.ApplicationDeadline, &in.ApplicationDeadline},
		{req.StartDate, &in.StartDate},
		{req.EndDate, &in.EndDate},
	}
	for _, d := range dates {
		if d.raw == nil {
			continue
		}
		parsed, err := parseFlexibleDate(*d.raw)
		if err != nil {
			return err
		}
		*d.dst = parsed
	}
	if req.MaxApplications != nil {
		in.MaxApplications = *req.MaxApplications
	}
	if req.CompanyDescription != nil {
		in.CompanyDescription = sanitizeText(*req.CompanyDescription)
	}
	if req.Requirements != nil {
		in.Requirements = cleanSkills(*req.Requirements)
	}
	if req.Benefits != nil {
		in.Benefits = cleanSkills(*req.Benefits)
	}
	if req.AdminNotes != nil {
		in.AdminNotes = sanitizeText(*req.AdminNotes)
	}
	if req.RecruiterNotes != nil {
		in.RecruiterNotes = sanitizeText(*req.RecruiterNotes)
	}
	return nil
}

// decorate attaches recommendation data when user is a student.
func (s *InternshipService) decorate(ctx context.Context, user *models.CurrentUser, items []models.Internship) ([]models.InternshipView, error) {
	views := make([]models.InternshipView, len(items))
	for i := range items {
		views[i] = models.InternshipView{Internship: items[i]}
	}
	if user == nil || user.Role != models.RoleStudent {
		return views, nil
	}
	byInternship := map[string]*models.Application{}
	if s.applications != nil {
		apps, err := s.applications.List(ctx, models.ApplicationFilter{StudentID: user.ID})
		if err != nil {
			return nil, internalError(err, "failed to load applications")
		}
		for i := range apps {
			byInternship[apps[i].InternshipID] = &apps[i]
		}
	}
	now := s.now()
	for i := range views {
		rec := Recommend(user, &views[i].Internship, byInternship[views[i].ID], now)
		views[i].RecommendationScore = &rec.Score
		views[i].IsEligible = &rec.Eligible
		views[i].HasApplied = &rec.HasApplied
		views[i].RejectionCooldown = rec.CooldownHours
	}
	return views, nil
}

// Recommendation is the per-student view of one posting.
type Recommendation struct {
	Score         int
	Eligible      bool
	HasApplied    bool
	CooldownHours *int
}

// Recommend scores internship for student. Department always counts as a
// match; academic minimums are relaxed by 2.0 CGPA and 4 semesters.
func Recommend(student *models.CurrentUser, internship *models.Internship, existing *models.Application, now time.Time) Recommendation {
	matched := 0
	for _, skill := range internship.RequiredSkills {
		if skill != "" && containsFoldTrim(student.Skills, skill) {
			matched++
		}
	}
	required := len(internship.RequiredSkills)
	if required == 0 {
		required = 1
	}
	cgpaOK := student.CGPA >= math.Max(0, internship.MinimumCGPA-2.0)
	semesterOK := student.Semester >= maxInt(1, internship.MinimumSemester-4)

	score := float64(matched)/float64(required)*40 + 30
	if cgpaOK {
		score += 20
	}
	if semesterOK {
		score += 10
	}
	rec := Recommendation{
		Score:    int(math.Round(score)),
		Eligible: cgpaOK && semesterOK,
	}
	if existing == nil {
		return rec
	}
	rec.HasApplied = true
	if existing.Status == models.ApplicationRejected && !existing.RejectionTime().IsZero() {
		remaining := existing.CooldownRemaining(now)
		if remaining == 0 {
			rec.HasApplied = false
		} else {
			hours := int(math.Ceil(remaining.Hours()))
			rec.CooldownHours = &hours
		}
	}
	return rec
}

func matchInternship(filter models.InternshipFilter, in *models.Internship) bool {
	if filter.Department != "" && !anyContainsFold(in.EligibleDepartments, filter.Department) {
		return false
	}
	if filter.Location != "" && !containsFold(in.Location, filter.Location) {
		return false
	}
	if filter.WorkMode != "" && in.WorkMode != filter.WorkMode {
		return false
	}
	if filter.Company != "" && !containsFold(in.Company, filter.Company) {
		return false
	}
	if len(filter.Skills) > 0 {
		found := false
		for _, skill := range filter.Skills {
			if anyContainsFold(in.RequiredSkills, skill) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.MinStipend > 0 || filter.MaxStipend > 0 {
		if amount, ok := parseStipend(in.Stipend); ok {
			if filter.MinStipend > 0 && amount < filter.MinStipend {
				return false
			}
			if filter.MaxStipend > 0 && amount > filter.MaxStipend {
				return false
			}
		}
	}
	return true
}

// parseStipend extracts the first amount from strings like "₹20,000/month".
func parseStipend(stipend string) (int, bool) {
	match := stipendAmount.FindString(stipend)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

var flexibleDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "02-01-2006", "02/01/2006"}

// parseFlexibleDate accepts DD-MM-YYYY, DD/MM/YYYY or ISO-8601 dates. An
// empty string yields nil.
func parseFlexibleDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid date", map[string]interface{}{"value": raw})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func anyContainsFold(items []string, needle string) bool {
	for _, item := range items {
		if containsFold(item, needle) {
			return true
		}
	}
	return false
}

func containsFoldTrim(items []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, item := range items {
		if item != "" && strings.EqualFold(strings.TrimSpace(item), target) {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
