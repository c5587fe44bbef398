package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
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
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

var (
	errIPPNotFound      = appErrors.Clone(appErrors.ErrNotFound, "IPP not found")
	errIPPNotPublic     = appErrors.Clone(appErrors.ErrNotFound, "IPP not found or not public")
	errInvalidMagicLink = appErrors.Clone(appErrors.ErrTokenExpired, "Invalid token or link expired")
	errCertNotFound     = appErrors.Clone(appErrors.ErrNotFound, "Certificate not found")
	unsafeFolderChars   = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

type ippRepository interface {
	List(ctx context.Context, filter models.IPPFilter) ([]models.IPP, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.IPP, error)
	FindByID(ctx context.Context, id string) (*models.IPP, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*models.IPP, error)
	Create(ctx context.Context, ipp *models.IPP) error
	Save(ctx context.Context, ipp *models.IPP) error
}

type ippApplicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	Update(ctx context.Context, application *models.Application) error
}

type ippInternshipFinder interface {
	FindByID(ctx context.Context, id string) (*models.Internship, error)
}

type ippStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

type certificateStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	URL(name string) string
}

type ippObserver interface {
	ObserveIPPTransition(status models.IPPStatus)
}

type certificateSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

// IPPServiceConfig tunes the passport workflow.
type IPPServiceConfig struct {
	RequireFacultyApproval bool
	MagicLinkTTL           time.Duration
	SuperAdminURL          string
	FrontendURL            string
	// CertificateBaseURL prefixes signed certificate download links.
	CertificateBaseURL string
	MaxUploadBytes     int64
	AllowedMIMEs       []string
}

// IPPDependencies groups the collaborators of IPPService.
type IPPDependencies struct {
	Repo         ippRepository
	Applications ippApplicationRepository
	Internships  ippInternshipFinder
	Students     ippStudentRepository
	Renderer     certificateRenderer
	Certificates certificateStore
	Signer       certificateSigner
	// Documents receives uploaded supporting files. CertificateUploader, when
	// set, also receives rendered certificates and its URL is published.
	Documents           storage.Uploader
	CertificateUploader storage.Uploader
	Scheduler           *NotificationScheduler
	Audit               *AuditService
	Publisher           events.Publisher
	Metrics             ippObserver
	Validator           *validator.Validate
	Logger              *zap.Logger
}

// IPPUpload is a supporting document streamed from the request.
type IPPUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// CertificateDownload is an opened certificate ready for streaming.
type CertificateDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
}

// IPPService runs the internship performance passport workflow.
type IPPService struct {
	deps    IPPDependencies
	cfg     IPPServiceConfig
	mimeSet map[string]struct{}
	tracer  trace.Tracer
	now     func() time.Time
}

// NewIPPService constructs an IPPService with defaults applied.
func NewIPPService(deps IPPDependencies, cfg IPPServiceConfig) *IPPService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Renderer == nil {
		deps.Renderer = export.NewCertificateRenderer()
	}
	if cfg.MagicLinkTTL <= 0 {
		cfg.MagicLinkTTL = 7 * 24 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	cfg.SuperAdminURL = strings.TrimRight(cfg.SuperAdminURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.CertificateBaseURL = strings.TrimRight(cfg.CertificateBaseURL, "/")
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &IPPService{
		deps:    deps,
		cfg:     cfg,
		mimeSet: mimeSet,
		tracer:  otel.Tracer("github.com/noah-isme/campus-placement-api/internal/service/ipp"),
		now:     time.Now,
	}
}

// Create starts a passport for an accepted application. An existing passport
// for the same student and internship is relinked to the application and
// returned with created=false.
func (s *IPPService) Create(ctx context.Context, user *models.CurrentUser, req dto.CreateIPPRequest) (*dto.CreateIPPResponse, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, validationError(err, "Internship ID is required")
	}
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" && user != nil {
		studentID = user.ID
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	if user != nil && user.Role == models.RoleStudent && studentID != user.ID {
		return nil, errAccessDenied
	}
	ctx, span := s.tracer.Start(ctx, "ipp.create", trace.WithAttributes(
		attribute.String("student.id", studentID),
		attribute.String("internship.id", req.InternshipID),
	))
	defer span.End()

	application, err := s.eligibleApplication(ctx, studentID, req)
	if err != nil {
		return nil, err
	}
	internship, err := s.deps.Internships.FindByID(ctx, req.InternshipID)
	if err != nil {
		return nil, notFoundOr(err, errInternshipNotFound.Message, "failed to load internship")
	}

	existing, err := s.deps.Repo.ListByStudent(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return nil, internalError(err, "failed to check existing passports")
	}
	for i := range existing {
		if existing[i].InternshipID != req.InternshipID {
			continue
		}
		ipp := &existing[i]
		s.linkApplication(ctx, application, ipp.IPPID, models.IPPLinkInProgress)
		s.deps.Logger.Info("existing passport relinked", zap.String("ipp_id", ipp.IPPID), zap.String("application_id", application.ID))
		redacted := ipp.Redacted()
		return &dto.CreateIPPResponse{IPPID: ipp.IPPID, Created: false, IPP: &redacted}, nil
	}

	now := s.now().UTC()
	details := &models.InternshipDetails{
		Company:   internship.Company,
		Role:      internship.Title,
		Domain:    "General",
		StartDate: internship.StartDate,
		EndDate:   internship.EndDate,
		Duration:  internship.Duration,
		Location:  internship.Location,
		WorkMode:  internship.WorkMode,
	}
	if len(internship.EligibleDepartments) > 0 && internship.EligibleDepartments[0] != "" {
		details.Domain = internship.EligibleDepartments[0]
	}
	if application.OfferDetails != nil && application.OfferDetails.StartDate != nil {
		details.StartDate = application.OfferDetails.StartDate
	}
	if details.EndDate == nil {
		details.EndDate = &now
	}

	ipp := &models.IPP{
		IPPID:             models.BuildIPPID(studentID, internship.ID, now.Year()),
		StudentID:         studentID,
		InternshipID:      internship.ID,
		ApplicationID:     application.ID,
		InternshipDetails: details,
		Verification:      &models.IPPVerification{FinalStatus: models.IPPFinalPending},
		Status:            models.IPPPendingMentorEval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.deps.Repo.Create(ctx, ipp); err != nil {
		span.RecordError(err)
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "IPP already exists")
		}
		return nil, internalError(err, "failed to create IPP")
	}
	s.linkApplication(ctx, application, ipp.IPPID, models.IPPLinkInProgress)
	s.attachToStudent(ctx, studentID, ipp.IPPID)
	s.transition(ctx, ipp, "created")
	redacted := ipp.Redacted()
	return &dto.CreateIPPResponse{IPPID: ipp.IPPID, Created: true, IPP: &redacted}, nil
}

func (s *IPPService) eligibleApplication(ctx context.Context, studentID string, req dto.CreateIPPRequest) (*models.Application, error) {
	if id := strings.TrimSpace(req.ApplicationID); id != "" {
		app, err := s.deps.Applications.FindByID(ctx, id)
		if err == nil && app.Status.IPPEligible() {
			return app, nil
		}
		if err != nil && !repository.IsNotFound(err) {
			return nil, internalError(err, "failed to load application")
		}
	}
	apps, err := s.deps.Applications.List(ctx, models.ApplicationFilter{StudentID: studentID, InternshipID: req.InternshipID})
	if err != nil {
		return nil, internalError(err, "failed to load applications")
	}
	for i := range apps {
		if apps[i].Status.IPPEligible() {
			return &apps[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Application not found. Please ensure you have an accepted/offered/completed application.")
}

func (s *IPPService) linkApplication(ctx context.Context, app *models.Application, ippID, status string) {
	if app == nil {
		return
	}
	app.IPPID = ippID
	app.IPPStatus = status
	if err := s.deps.Applications.Update(ctx, app); err != nil {
		s.deps.Logger.Warn("link application to passport", zap.String("application_id", app.ID), zap.String("ipp_id", ippID), zap.Error(err))
	}
}

func (s *IPPService) attachToStudent(ctx context.Context, studentID, ippID string) {
	if s.deps.Students == nil {
		return
	}
	student, err := s.deps.Students.FindByID(ctx, studentID)
	if err != nil {
		s.deps.Logger.Warn("load student for passport", zap.String("student_id", studentID), zap.Error(err))
		return
	}
	for _, id := range student.InternshipPassports {
		if id == ippID {
			return
		}
	}
	student.InternshipPassports = append(student.InternshipPassports, ippID)
	if err := s.deps.Students.Update(ctx, student); err != nil {
		s.deps.Logger.Warn("attach passport to student", zap.String("student_id", studentID), zap.Error(err))
	}
}

// SendEvaluationRequest issues a single-use magic link to the company mentor
// and queues the invitation email. The passport status is unchanged.
func (s *IPPService) SendEvaluationRequest(ctx context.Context, user *models.CurrentUser, ippID string, req dto.EvaluationRequest) (string, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return "", validationError(err, "Mentor email and name are required")
	}
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return "", err
	}
	if !canManageIPP(user, ipp) {
		return "", errAccessDenied
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", internalError(err, "failed to generate magic link")
	}
	token := hex.EncodeToString(raw)
	expiry := s.now().UTC().Add(s.cfg.MagicLinkTTL)
	ipp.MentorAccessToken = &token
	ipp.MentorAccessExpiry = &expiry
	ipp.MentorAccessUsedAt = nil
	if ipp.CompanyMentorEvaluation == nil {
		ipp.CompanyMentorEvaluation = &models.CompanyEvaluation{}
	}
	ipp.CompanyMentorEvaluation.MentorEmail = req.MentorEmail
	ipp.CompanyMentorEvaluation.MentorName = req.MentorName
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		return "", internalError(err, "failed to store magic link")
	}

	link := fmt.Sprintf("%s/mentor/evaluate/%s?token=%s&email=%s&name=%s",
		s.cfg.SuperAdminURL, url.PathEscape(ipp.IPPID), token, url.QueryEscape(req.MentorEmail), url.QueryEscape(req.MentorName))

	studentName := "Student"
	if student := s.student(ctx, ipp.StudentID); student != nil && student.Name != "" {
		studentName = student.Name
	}
	company, role := "Company", "Internship Role"
	if d := ipp.InternshipDetails; d != nil {
		company = orDefault(d.Company, company)
		role = orDefault(d.Role, role)
	}
	if s.deps.Scheduler != nil {
		_, err := s.deps.Scheduler.Schedule(ctx, &models.ScheduledNotification{
			Type:           models.NotificationIPPEvaluationRequest,
			RecipientEmail: req.MentorEmail,
			RecipientName:  req.MentorName,
			Subject:        fmt.Sprintf("Internship Evaluation Request - %s", studentName),
			Message:        evaluationRequestMessage(req.MentorName, studentName, company, role, link, s.cfg.MagicLinkTTL),
			Metadata:       models.NotificationMetadata{"ippId": ipp.IPPID, "studentId": ipp.StudentID},
			CreatedBy:      actorID(user),
		})
		if err != nil {
			s.deps.Logger.Warn("queue evaluation request", zap.String("ipp_id", ipp.IPPID), zap.Error(err))
		}
	}
	s.deps.Logger.Info("evaluation request issued", zap.String("ipp_id", ipp.IPPID), zap.String("mentor_email", req.MentorEmail))
	return link, nil
}

// SubmitCompanyEvaluation records the company mentor's ratings. When the
// passport carries a magic-link token the submitted token must match, be
// unexpired and unused.
func (s *IPPService) SubmitCompanyEvaluation(ctx context.Context, ippID string, req dto.CompanyEvaluationRequest) (*models.IPP, error) {
	if err := s.deps.Validator.Struct(req.Evaluation); err != nil {
		return nil, validationError(err, "Ratings must be between 1 and 10")
	}
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if ipp.MentorAccessToken != nil && *ipp.MentorAccessToken != "" {
		if subtle.ConstantTimeCompare([]byte(*ipp.MentorAccessToken), []byte(req.Token)) != 1 {
			return nil, errInvalidMagicLink
		}
		if ipp.MentorAccessExpiry != nil && now.After(*ipp.MentorAccessExpiry) {
			return nil, errInvalidMagicLink
		}
		if ipp.MentorAccessUsedAt != nil {
			return nil, errInvalidMagicLink
		}
	}
	if ipp.Status == models.IPPVerified || ipp.Status == models.IPPPublished {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "IPP has already been verified")
	}

	evaluation := req.Evaluation
	if previous := ipp.CompanyMentorEvaluation; previous != nil {
		evaluation.MentorName = orDefault(evaluation.MentorName, previous.MentorName)
		evaluation.MentorEmail = orDefault(evaluation.MentorEmail, previous.MentorEmail)
	}
	evaluation.DetailedFeedback = sanitizeText(evaluation.DetailedFeedback)
	evaluation.SubmittedAt = &now
	ipp.CompanyMentorEvaluation = &evaluation

	verification := ipp.EnsureVerification()
	verification.CompanyVerified = true
	verification.CompanyVerifiedBy = evaluation.MentorEmail
	verification.CompanyVerifiedAt = &now
	if ipp.MentorAccessToken != nil {
		ipp.MentorAccessUsedAt = &now
	}
	ipp.Status = models.IPPPendingStudentSubmission

	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		return nil, internalError(err, "failed to save evaluation")
	}
	s.transition(ctx, ipp, "company_evaluation")
	redacted := ipp.Redacted()
	return &redacted, nil
}

// SubmitStudentSubmission records the student's reflection. Without faculty
// approval configured, a passport that already has a company evaluation is
// summarised, certified and verified immediately.
func (s *IPPService) SubmitStudentSubmission(ctx context.Context, user *models.CurrentUser, ippID string, req dto.StudentSubmissionRequest) (*dto.StudentSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ipp.student_submission", trace.WithAttributes(attribute.String("ipp.id", ippID)))
	defer span.End()

	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	if !isOwnerOrAdmin(user, ipp) {
		return nil, errAccessDenied
	}
	if ipp.Status == models.IPPVerified || ipp.Status == models.IPPPublished {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "IPP has already been verified")
	}
	if !s.cfg.RequireFacultyApproval && !ipp.CompanyMentorEvaluation.Submitted() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Company mentor evaluation must be submitted first")
	}

	now := s.now().UTC()
	submission := req.Submission
	submission.Reflection = sanitizeText(submission.Reflection)
	submission.FutureGoals = sanitizeText(submission.FutureGoals)
	if previous := ipp.StudentSubmission; previous != nil {
		submission.Documents = mergeDocuments(previous.Documents, submission.Documents)
	}
	submission.SubmittedAt = &now
	ipp.StudentSubmission = &submission

	if s.cfg.RequireFacultyApproval {
		ipp.Status = models.IPPPendingFacultyApproval
	} else {
		s.verify(ctx, ipp)
	}
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		span.RecordError(err)
		return nil, internalError(err, "failed to save submission")
	}
	s.transition(ctx, ipp, "student_submission")

	redacted := ipp.Redacted()
	resp := &dto.StudentSubmissionResponse{IPP: &redacted}
	if ipp.Certificate.Issued() {
		resp.CertificateURL = ipp.Certificate.CertificateURL
	}
	return resp, nil
}

// SubmitFacultyAssessment records the faculty mentor's review. Approval
// verifies the passport; anything else sends it back to the student.
func (s *IPPService) SubmitFacultyAssessment(ctx context.Context, user *models.CurrentUser, ippID string, req dto.FacultyAssessmentRequest) (*models.IPP, error) {
	if user == nil || (user.Role != models.RoleMentor && user.Role != models.RoleAdmin) {
		return nil, errAccessDenied
	}
	if err := s.deps.Validator.Struct(req.Assessment); err != nil {
		return nil, validationError(err, "approvalStatus must be approved, needs_revision or rejected")
	}
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	if ipp.Status == models.IPPPublished {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "IPP has already been published")
	}

	now := s.now().UTC()
	assessment := req.Assessment
	assessment.FacultyID = orDefault(assessment.FacultyID, user.ID)
	assessment.FacultyName = orDefault(assessment.FacultyName, user.Name)
	assessment.Comments = sanitizeText(assessment.Comments)
	assessment.AssessedAt = &now
	ipp.FacultyAssessment = &assessment

	verification := ipp.EnsureVerification()
	verification.FacultyApproved = assessment.ApprovalStatus == models.FacultyApproved
	verification.FacultyApprovedBy = user.ID
	verification.FacultyApprovedAt = &now

	if assessment.ApprovalStatus == models.FacultyApproved {
		s.verify(ctx, ipp)
	} else {
		ipp.Status = models.IPPPendingStudentSubmission
		verification.FinalStatus = models.IPPFinalRejected
	}
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		return nil, internalError(err, "failed to save assessment")
	}
	s.transition(ctx, ipp, "faculty_assessment")
	redacted := ipp.Redacted()
	return &redacted, nil
}

// verify summarises the passport, issues its certificate if missing and
// marks it verified.
func (s *IPPService) verify(ctx context.Context, ipp *models.IPP) {
	ipp.Summary = summarize(ipp)
	if !ipp.Certificate.Issued() {
		ipp.Certificate = s.issueCertificate(ctx, ipp)
	}
	ipp.Status = models.IPPVerified
	ipp.EnsureVerification().FinalStatus = models.IPPFinalVerified
}

// Publish makes a verified passport public, updates the student's totals and
// notifies them.
func (s *IPPService) Publish(ctx context.Context, admin *models.CurrentUser, ippID string) (*dto.PublishIPPResponse, error) {
	if !admin.IsAdmin() {
		return nil, errAccessDenied
	}
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	if ipp.Status != models.IPPVerified {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Only verified IPPs can be published")
	}

	now := s.now().UTC()
	ipp.Summary = summarize(ipp)
	if !ipp.Certificate.Issued() {
		ipp.Certificate = s.issueCertificate(ctx, ipp)
	}
	ipp.Sharing = &models.IPPSharing{PublicProfileURL: "/ipp/view/" + ipp.IPPID, IsPublic: true}
	ipp.Status = models.IPPPublished
	ipp.PublishedAt = &now
	verification := ipp.EnsureVerification()
	verification.PlacementCellApproved = true
	verification.PlacementCellApprovedBy = admin.ID
	verification.PlacementCellApprovedAt = &now
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		return nil, internalError(err, "failed to publish IPP")
	}

	student := s.updateStudentTotals(ctx, ipp)
	if app, err := s.deps.Applications.FindByID(ctx, ipp.ApplicationID); err == nil {
		s.linkApplication(ctx, app, ipp.IPPID, models.IPPLinkCompleted)
	} else if !repository.IsNotFound(err) {
		s.deps.Logger.Warn("load passport application", zap.String("application_id", ipp.ApplicationID), zap.Error(err))
	}
	if student != nil && student.Email != "" && s.deps.Scheduler != nil {
		_, err := s.deps.Scheduler.Schedule(ctx, &models.ScheduledNotification{
			Type:           models.NotificationIPPStatus,
			RecipientEmail: student.Email,
			RecipientName:  student.Name,
			Subject:        "Your Internship Performance Passport is published",
			Message:        publishedMessage(student, ipp, s.cfg.FrontendURL),
			Metadata:       models.NotificationMetadata{"ippId": ipp.IPPID, "status": string(ipp.Status)},
			CreatedBy:      admin.ID,
		})
		if err != nil {
			s.deps.Logger.Warn("queue publish notification", zap.String("ipp_id", ipp.IPPID), zap.Error(err))
		}
	}
	s.deps.Audit.LogAdminAction(ctx, admin.ID, models.AuditActionPublishIPP, models.AuditDetails{
		"ippId":     ipp.IPPID,
		"studentId": ipp.StudentID,
	})
	s.transition(ctx, ipp, "published")
	redacted := ipp.Redacted()
	return &dto.PublishIPPResponse{PublicURL: ipp.Sharing.PublicProfileURL, IPP: &redacted}, nil
}

func (s *IPPService) updateStudentTotals(ctx context.Context, published *models.IPP) *models.Student {
	student := s.student(ctx, published.StudentID)
	if student == nil || s.deps.Students == nil {
		return student
	}
	passports, err := s.deps.Repo.ListByStudent(ctx, student.ID)
	if err != nil {
		s.deps.Logger.Warn("list student passports", zap.String("student_id", student.ID), zap.Error(err))
		passports = nil
	}
	var sum float64
	var rated int
	seen := false
	for i := range passports {
		p := &passports[i]
		if p.IPPID == published.IPPID {
			p = published
			seen = true
		}
		if p.Summary != nil && p.Summary.OverallRating > 0 {
			sum += p.Summary.OverallRating
			rated++
		}
	}
	if !seen && published.Summary != nil && published.Summary.OverallRating > 0 {
		sum += published.Summary.OverallRating
		rated++
	}
	student.TotalInternshipsCompleted++
	if rated > 0 {
		avg := round2(sum / float64(rated))
		student.AverageInternshipRating = avg
		student.EmployabilityScore = round2(avg * 10)
	}
	if err := s.deps.Students.Update(ctx, student); err != nil {
		s.deps.Logger.Warn("update student totals", zap.String("student_id", student.ID), zap.Error(err))
	}
	return student
}

// UpdateSkillAssessment stores before/after skill levels and the resulting
// skill growth score.
func (s *IPPService) UpdateSkillAssessment(ctx context.Context, user *models.CurrentUser, ippID string, req dto.SkillAssessmentRequest) (*models.IPP, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, validationError(err, "Skill levels must be between 1 and 10")
	}
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	if !canManageIPP(user, ipp) {
		return nil, errAccessDenied
	}
	now := s.now().UTC()
	assessment := req.SkillAssessment
	var score float64
	assessment.SkillGrowth, score = SkillGrowth(assessment.PreAssessment, assessment.PostAssessment)
	assessment.AssessedAt = &now
	if req.SkillGrowthScore != nil {
		score = *req.SkillGrowthScore
	}
	ipp.SkillAssessment = &assessment
	if ipp.Summary == nil {
		ipp.Summary = &models.IPPSummary{}
	}
	ipp.Summary.SkillGrowthScore = score
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		return nil, internalError(err, "failed to save skill assessment")
	}
	redacted := ipp.Redacted()
	return &redacted, nil
}

// List merges passports from both stores and attaches student details.
func (s *IPPService) List(ctx context.Context, query dto.IPPQuery) ([]models.IPPView, error) {
	ipps, err := s.deps.Repo.List(ctx, models.IPPFilter{
		Status:  models.IPPStatus(strings.TrimSpace(query.Status)),
		Company: strings.TrimSpace(query.Company),
	})
	if err != nil {
		return nil, internalError(err, "failed to list IPPs")
	}
	return s.views(ctx, ipps), nil
}

// ListByStudent returns a student's passports, newest first.
func (s *IPPService) ListByStudent(ctx context.Context, user *models.CurrentUser, studentID string) ([]models.IPPView, error) {
	if user != nil && user.Role == models.RoleStudent && user.ID != studentID {
		return nil, errAccessDenied
	}
	ipps, err := s.deps.Repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, internalError(err, "failed to list IPPs")
	}
	return s.views(ctx, ipps), nil
}

// Get returns one passport with student details.
func (s *IPPService) Get(ctx context.Context, user *models.CurrentUser, ippID string) (*models.IPPView, error) {
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	if user != nil && user.Role == models.RoleStudent && ipp.StudentID != user.ID {
		return nil, errAccessDenied
	}
	view := s.views(ctx, []models.IPP{*ipp})[0]
	return &view, nil
}

// GetPublic returns a shared passport and counts the view.
func (s *IPPService) GetPublic(ctx context.Context, ippID string) (*models.IPPView, error) {
	ipp, err := s.deps.Repo.FindByID(ctx, ippID)
	if err != nil {
		return nil, notFoundOr(err, errIPPNotPublic.Message, "failed to load IPP")
	}
	if ipp.Sharing == nil || !ipp.Sharing.IsPublic {
		return nil, errIPPNotPublic
	}
	ipp.Sharing.ViewCount++
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		s.deps.Logger.Warn("count public passport view", zap.String("ipp_id", ippID), zap.Error(err))
	}
	view := s.views(ctx, []models.IPP{*ipp})[0]
	return &view, nil
}

// OpenCertificate opens the stored certificate PDF by certificate id.
func (s *IPPService) OpenCertificate(ctx context.Context, certificateID string) (*CertificateDownload, error) {
	if s.deps.Certificates == nil {
		return nil, errCertNotFound
	}
	ipp, err := s.deps.Repo.FindByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, notFoundOr(err, errCertNotFound.Message, "failed to load certificate")
	}
	if !ipp.Certificate.Issued() {
		return nil, errCertNotFound
	}
	return s.openCertificateFile(certificateID, certificateFile(certificateID))
}

// OpenSignedCertificate validates a signed download token and opens the
// referenced certificate.
func (s *IPPService) OpenSignedCertificate(ctx context.Context, token string) (*CertificateDownload, error) {
	if s.deps.Signer == nil || s.deps.Certificates == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "certificate downloads unavailable")
	}
	certificateID, relPath, _, err := s.deps.Signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if relPath != certificateFile(certificateID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	return s.openCertificateFile(certificateID, relPath)
}

func (s *IPPService) openCertificateFile(certificateID, relPath string) (*CertificateDownload, error) {
	file, err := s.deps.Certificates.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errCertNotFound
		}
		return nil, internalError(err, "failed to open certificate")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, internalError(err, "failed to read certificate metadata")
	}
	return &CertificateDownload{File: file, Filename: certificateID + ".pdf", SizeBytes: info.Size()}, nil
}

// UploadDocument stores a supporting PDF or image and appends it to the
// student's submission.
func (s *IPPService) UploadDocument(ctx context.Context, user *models.CurrentUser, ippID string, upload IPPUpload) (*dto.IPPDocumentResponse, error) {
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "No file uploaded")
	}
	if upload.Size > s.cfg.MaxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("File size must be less than %dMB", s.cfg.MaxUploadBytes/(1024*1024)))
	}
	ipp, err := s.load(ctx, ippID)
	if err != nil {
		return nil, err
	}
	if !canManageIPP(user, ipp) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not allowed to upload documents for this IPP")
	}
	mime, err := mimetype.DetectReader(upload.Content)
	if err != nil {
		return nil, internalError(err, "failed to inspect upload")
	}
	if !s.allowedMIME(mime) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "Only PDF or image files are allowed")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, internalError(err, "failed to reset upload stream")
	}
	if s.deps.Documents == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "document storage is not configured")
	}

	resourceType := storage.ResourceImage
	if mime.Is("application/pdf") {
		resourceType = storage.ResourceRaw
	}
	now := s.now().UTC()
	result, err := s.deps.Documents.Upload(ctx, storage.UploadInput{
		Folder:       "campus_buddy/ipp_documents/" + unsafeFolderChars.ReplaceAllString(ipp.IPPID, "_"),
		PublicID:     fmt.Sprintf("doc_%d", now.UnixMilli()),
		ResourceType: resourceType,
		Filename:     upload.Filename,
	}, upload.Content)
	if err != nil {
		return nil, internalError(err, "Failed to upload document")
	}

	if ipp.StudentSubmission == nil {
		ipp.StudentSubmission = &models.StudentSubmission{}
	}
	ipp.StudentSubmission.Documents = append(ipp.StudentSubmission.Documents, models.IPPDocument{
		Name:       filepath.Base(upload.Filename),
		URL:        result.URL,
		Type:       mime.String(),
		Size:       result.Bytes,
		UploadedAt: now,
	})
	if err := s.deps.Repo.Save(ctx, ipp); err != nil {
		s.deps.Logger.Warn("record uploaded document", zap.String("ipp_id", ipp.IPPID), zap.Error(err))
	}
	s.deps.Logger.Info("ipp document uploaded", zap.String("ipp_id", ipp.IPPID), zap.String("public_id", result.PublicID))
	return &dto.IPPDocumentResponse{
		FileURL:      result.URL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
		Format:       result.Format,
		Bytes:        result.Bytes,
		OriginalName: upload.Filename,
	}, nil
}

func (s *IPPService) allowedMIME(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if _, ok := s.mimeSet[strings.ToLower(m.String())]; ok {
			return true
		}
	}
	return false
}

// issueCertificate renders, stores and links the certificate. Failures are
// recorded on the certificate instead of failing the transition.
func (s *IPPService) issueCertificate(ctx context.Context, ipp *models.IPP) *models.IPPCertificate {
	now := s.now().UTC()
	certificateID := "CERT-" + ipp.IPPID
	cert := &models.IPPCertificate{CertificateID: certificateID, GeneratedAt: &now}
	fail := func(err error) *models.IPPCertificate {
		s.deps.Logger.Error("certificate generation failed", zap.String("ipp_id", ipp.IPPID), zap.Error(err))
		cert.Error = "Certificate generation failed"
		return cert
	}

	payload, err := json.Marshal(map[string]string{
		"certificateId":   certificateID,
		"ippId":           ipp.IPPID,
		"verificationUrl": s.cfg.FrontendURL + "/verify/" + certificateID,
		"issuedAt":        now.Format(time.RFC3339),
	})
	if err != nil {
		return fail(err)
	}
	qr, err := export.QRCodePNG(string(payload))
	if err != nil {
		return fail(err)
	}
	cert.QRCode = export.DataURL(qr)

	data := export.CertificateData{
		CertificateID: certificateID,
		StudentName:   "Student",
		IssuedAt:      now,
		QRCode:        qr,
	}
	if student := s.student(ctx, ipp.StudentID); student != nil && student.Name != "" {
		data.StudentName = student.Name
	}
	if d := ipp.InternshipDetails; d != nil {
		data.Role, data.Company, data.StartDate, data.EndDate = d.Role, d.Company, d.StartDate, d.EndDate
	}
	if sum := ipp.Summary; sum != nil {
		rating, employability := sum.OverallRating, sum.EmployabilityScore
		data.OverallRating, data.EmployabilityScore, data.PerformanceGrade = &rating, &employability, sum.PerformanceGrade
	}
	pdf, err := s.deps.Renderer.Render(data)
	if err != nil {
		return fail(err)
	}

	if s.deps.Certificates != nil {
		name := certificateFile(certificateID)
		if _, err := s.deps.Certificates.Save(name, pdf); err != nil {
			return fail(err)
		}
		cert.CertificateURL = s.certificateURL(certificateID, name)
	}
	if s.deps.CertificateUploader != nil {
		result, err := s.deps.CertificateUploader.Upload(ctx, storage.UploadInput{
			Folder:       "campus_buddy/certificates",
			PublicID:     certificateID,
			ResourceType: storage.ResourceRaw,
			Filename:     certificateID + ".pdf",
		}, bytes.NewReader(pdf))
		if err != nil {
			s.deps.Logger.Warn("upload certificate", zap.String("certificate_id", certificateID), zap.Error(err))
		} else {
			cert.CertificateURL = result.URL
		}
	}
	if cert.CertificateURL == "" {
		return fail(fmt.Errorf("no certificate storage configured"))
	}
	s.deps.Logger.Info("certificate issued", zap.String("ipp_id", ipp.IPPID), zap.String("certificate_id", certificateID))
	return cert
}

func (s *IPPService) certificateURL(certificateID, name string) string {
	if s.deps.Signer != nil {
		token, _, err := s.deps.Signer.Generate(certificateID, name)
		if err == nil {
			return s.cfg.CertificateBaseURL + "/certificates/" + token
		}
		s.deps.Logger.Warn("sign certificate link", zap.String("certificate_id", certificateID), zap.Error(err))
	}
	return s.deps.Certificates.URL(name)
}

func (s *IPPService) load(ctx context.Context, ippID string) (*models.IPP, error) {
	if strings.TrimSpace(ippID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "IPP ID is required")
	}
	ipp, err := s.deps.Repo.FindByID(ctx, ippID)
	if err != nil {
		return nil, notFoundOr(err, errIPPNotFound.Message, "failed to load IPP")
	}
	return ipp, nil
}

func (s *IPPService) student(ctx context.Context, id string) *models.Student {
	if s.deps.Students == nil {
		return nil
	}
	student, err := s.deps.Students.FindByID(ctx, id)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.deps.Logger.Warn("load passport student", zap.String("student_id", id), zap.Error(err))
		}
		return nil
	}
	return student
}

func (s *IPPService) views(ctx context.Context, ipps []models.IPP) []models.IPPView {
	students := map[string]*models.IPPStudentDetails{}
	out := make([]models.IPPView, 0, len(ipps))
	for _, ipp := range ipps {
		details, ok := students[ipp.StudentID]
		if !ok {
			details = &models.IPPStudentDetails{Name: "Unknown Student"}
			if st := s.student(ctx, ipp.StudentID); st != nil {
				details = &models.IPPStudentDetails{Name: st.Name, Email: st.Email, Department: st.Department, Semester: st.Semester}
			}
			students[ipp.StudentID] = details
		}
		out = append(out, models.IPPView{IPP: ipp.Redacted(), StudentDetails: details})
	}
	return out
}

func (s *IPPService) transition(ctx context.Context, ipp *models.IPP, step string) {
	payload := map[string]interface{}{
		"ippId":     ipp.IPPID,
		"studentId": ipp.StudentID,
		"status":    ipp.Status,
		"step":      step,
	}
	if err := s.deps.Publisher.Publish(ctx, events.TypeIPPTransition, payload); err != nil {
		s.deps.Logger.Warn("publish ipp transition", zap.String("ipp_id", ipp.IPPID), zap.Error(err))
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveIPPTransition(ipp.Status)
	}
	s.deps.Logger.Info("ipp transition", zap.String("ipp_id", ipp.IPPID), zap.String("step", step), zap.String("status", string(ipp.Status)))
}

// CalculateOverallRating averages the mean of each rating source that has
// at least one score: technical skills, soft skills and the faculty's
// numeric learning outcomes. The result is rounded to two decimals.
func CalculateOverallRating(evaluation *models.CompanyEvaluation, assessment *models.FacultyAssessment) float64 {
	var sources [][]float64
	if evaluation != nil {
		sources = append(sources, evaluation.TechnicalSkills.Scores(), evaluation.SoftSkills.Scores())
	}
	if assessment != nil {
		sources = append(sources, assessment.LearningOutcomes.Scores())
	}
	var total float64
	var count int
	for _, scores := range sources {
		if len(scores) == 0 {
			continue
		}
		total += mean(scores)
		count++
	}
	if count == 0 {
		return 0
	}
	return round2(total / float64(count))
}

// PerformanceGrade maps an overall rating onto the letter grade ladder.
func PerformanceGrade(rating float64) string {
	switch {
	case rating >= 9.5:
		return "A+"
	case rating >= 9:
		return "A"
	case rating >= 8.5:
		return "B+"
	case rating >= 8:
		return "B"
	case rating >= 7.5:
		return "C+"
	case rating >= 7:
		return "C"
	case rating >= 6:
		return "D"
	}
	return "F"
}

// RecommendationStrength buckets a rating for the published summary.
func RecommendationStrength(rating float64) string {
	switch {
	case rating >= 8:
		return "Strong"
	case rating >= 6:
		return "Moderate"
	}
	return "Weak"
}

func summarize(ipp *models.IPP) *models.IPPSummary {
	rating := CalculateOverallRating(ipp.CompanyMentorEvaluation, ipp.FacultyAssessment)
	summary := &models.IPPSummary{
		OverallRating:          rating,
		PerformanceGrade:       PerformanceGrade(rating),
		EmployabilityScore:     round2(rating * 10),
		RecommendationStrength: RecommendationStrength(rating),
	}
	if ipp.Summary != nil {
		summary.SkillGrowthScore = ipp.Summary.SkillGrowthScore
	}
	return summary
}

// SkillGrowth compares post-internship levels with the matching pre levels
// and returns the per-skill growth plus a 0-100 growth score.
func SkillGrowth(pre, post []models.SkillLevel) ([]models.SkillGrowth, float64) {
	before := make(map[string]float64, len(pre))
	for _, p := range pre {
		before[strings.ToLower(strings.TrimSpace(p.SkillName))] = p.Level
	}
	var growth []models.SkillGrowth
	var total float64
	for _, p := range post {
		start, ok := before[strings.ToLower(strings.TrimSpace(p.SkillName))]
		if !ok || start <= 0 {
			continue
		}
		pct := round2((p.Level - start) / start * 100)
		growth = append(growth, models.SkillGrowth{
			SkillName:        p.SkillName,
			BeforeLevel:      start,
			AfterLevel:       p.Level,
			GrowthPercentage: pct,
			GrowthCategory:   growthCategory(pct),
		})
		total += pct
	}
	if len(growth) == 0 {
		return nil, 0
	}
	return growth, round2(math.Max(0, math.Min(100, total/float64(len(growth)))))
}

func growthCategory(pct float64) string {
	switch {
	case pct >= 50:
		return "Significant Growth"
	case pct >= 20:
		return "Moderate Growth"
	case pct > 0:
		return "Minimal Growth"
	case pct == 0:
		return "No Change"
	}
	return "Decline"
}

func mergeDocuments(existing, incoming []models.IPPDocument) []models.IPPDocument {
	out := append([]models.IPPDocument(nil), existing...)
	seen := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		seen[d.URL] = struct{}{}
	}
	for _, d := range incoming {
		if _, ok := seen[d.URL]; ok {
			continue
		}
		seen[d.URL] = struct{}{}
		out = append(out, d)
	}
	return out
}

func canManageIPP(user *models.CurrentUser, ipp *models.IPP) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin, models.RoleMentor:
		return true
	case models.RoleStudent:
		return ipp.StudentID == user.ID
	}
	return false
}

func isOwnerOrAdmin(user *models.CurrentUser, ipp *models.IPP) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin() || (user.Role == models.RoleStudent && ipp.StudentID == user.ID)
}

func certificateFile(certificateID string) string {
	return certificateID + ".pdf"
}

func actorID(user *models.CurrentUser) string {
	if user == nil {
		return CreatedBySystem
	}
	return user.ID
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func evaluationRequestMessage(mentorName, studentName, company, role, link string, ttl time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", mentorName)
	fmt.Fprintf(&b, "%s has completed an internship as %s at %s and listed you as their company mentor.\n\n", studentName, role, company)
	b.WriteString("Please share your evaluation of their technical and soft skills using the secure link below:\n\n")
	b.WriteString(link + "\n\n")
	fmt.Fprintf(&b, "The link can be used once and expires in %d days.\n\nThank you,\nCampus Placement Cell", int(ttl.Hours()/24))
	return b.String()
}

func publishedMessage(student *models.Student, ipp *models.IPP, frontendURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", student.Name)
	b.WriteString("Your Internship Performance Passport has been verified and published.\n\n")
	if ipp.Summary != nil {
		fmt.Fprintf(&b, "Overall Rating: %.2f/10\nPerformance Grade: %s\n\n", ipp.Summary.OverallRating, ipp.Summary.PerformanceGrade)
	}
	if ipp.Sharing != nil {
		b.WriteString("Public profile: " + frontendURL + ipp.Sharing.PublicProfileURL + "\n\n")
	}
	b.WriteString("Best regards,\nCampus Placement Cell")
	return b.String()
}
