package service

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

const testIPPID = "IPP-STU001-INT001-2026"

type offlineDatabase struct{}

func (offlineDatabase) Available() bool { return false }

type ippFixture struct {
	svc           *IPPService
	repo          *repository.DualIPPRepository
	applications  *fakeApplicationRepo
	students      *fakeStudentRepo
	notifications *fakeNotificationRepo
	publisher     *recordingPublisher
	now           time.Time
}

func newIPPFixture(t *testing.T, requireFaculty bool) *ippFixture {
	t.Helper()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	offerStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	certificates, err := storage.NewLocalStorage(t.TempDir(), "/certificates")
	require.NoError(t, err)
	documents, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	f := &ippFixture{
		repo: repository.NewDualIPPRepository(repository.NewIPPRepository(nil), t.TempDir(), offlineDatabase{}, nil, zap.NewNop()),
		applications: newFakeApplicationRepo(
			models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", Status: models.ApplicationAccepted,
				OfferDetails: &models.OfferDetails{StartDate: &offerStart}},
			models.Application{ID: "APP002", StudentID: "STU002", InternshipID: "INT001", Status: models.ApplicationApplied},
		),
		students: newFakeStudentRepo(
			models.Student{ID: "STU001", Name: "Asha", Email: "asha@college.edu", Department: "CSE", Semester: 6},
			models.Student{ID: "STU002", Name: "Ravi", Email: "ravi@college.edu", Department: "ECE", Semester: 4},
		),
		notifications: newFakeNotificationRepo(),
		publisher:     &recordingPublisher{},
		now:           now,
	}
	internships := newFakeInternshipRepo(models.Internship{
		ID: "INT001", Title: "Backend Intern", Company: "Acme", Status: models.InternshipActive,
		EligibleDepartments: []string{"Computer Science"}, EndDate: &end, Duration: "4 months", WorkMode: models.WorkModeHybrid,
	})
	scheduler := NewNotificationScheduler(f.notifications, nil)
	scheduler.now = func() time.Time { return now }

	f.svc = NewIPPService(IPPDependencies{
		Repo:         f.repo,
		Applications: f.applications,
		Internships:  internships,
		Students:     f.students,
		Certificates: certificates,
		Signer:       storage.NewSignedURLSigner("test-secret", time.Hour),
		Documents:    documents,
		Scheduler:    scheduler,
		Publisher:    f.publisher,
		Logger:       zap.NewNop(),
	}, IPPServiceConfig{
		RequireFacultyApproval: requireFaculty,
		SuperAdminURL:          "https://admin.example.com/",
		FrontendURL:            "https://app.example.com",
		CertificateBaseURL:     "https://api.example.com",
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func rating(v float64) *float64 { return &v }

func sampleEvaluation() models.CompanyEvaluation {
	return models.CompanyEvaluation{
		TechnicalSkills: &models.TechnicalSkills{
			DomainKnowledge: rating(8), ProblemSolving: rating(9), CodeQuality: rating(8), LearningAgility: rating(9), ToolProficiency: rating(7),
		},
		SoftSkills: &models.SoftSkills{
			Punctuality: rating(9), Teamwork: rating(8), Communication: rating(9), Leadership: rating(7), Adaptability: rating(8), WorkEthic: rating(9),
		},
		DetailedFeedback: "<b>Reliable</b> engineer",
	}
}

var (
	asha  = &models.CurrentUser{ID: "STU001", Name: "Asha", Role: models.RoleStudent}
	admin = &models.CurrentUser{ID: "ADM001", Name: "Placement Cell", Role: models.RoleAdmin}
	guide = &models.CurrentUser{ID: "MEN002", Name: "Dr. Rao", Role: models.RoleMentor}
)

func (f *ippFixture) create(t *testing.T) string {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), asha, dto.CreateIPPRequest{InternshipID: "INT001"})
	require.NoError(t, err)
	return resp.IPPID
}

func (f *ippFixture) magicToken(t *testing.T, ippID string) string {
	t.Helper()
	link, err := f.svc.SendEvaluationRequest(context.Background(), asha, ippID, dto.EvaluationRequest{
		MentorEmail: "lead@acme.io", MentorName: "Priya Shah",
	})
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func (f *ippFixture) evaluated(t *testing.T) string {
	t.Helper()
	ippID := f.create(t)
	token := f.magicToken(t, ippID)
	_, err := f.svc.SubmitCompanyEvaluation(context.Background(), ippID, dto.CompanyEvaluationRequest{Token: token, Evaluation: sampleEvaluation()})
	require.NoError(t, err)
	return ippID
}

func TestCalculateOverallRating(t *testing.T) {
	eval := sampleEvaluation()
	assert.Equal(t, 8.27, CalculateOverallRating(&eval, nil))
	assert.Equal(t, "B", PerformanceGrade(CalculateOverallRating(&eval, nil)))

	faculty := &models.FacultyAssessment{LearningOutcomes: &models.LearningOutcomes{IndustryExposure: rating(9), ProfessionalGrowth: rating(7)}}
	assert.Equal(t, 8.18, CalculateOverallRating(&eval, faculty))

	softOnly := &models.CompanyEvaluation{SoftSkills: eval.SoftSkills}
	assert.Equal(t, 8.33, CalculateOverallRating(softOnly, nil))
	assert.Zero(t, CalculateOverallRating(nil, nil))
	assert.Zero(t, CalculateOverallRating(&models.CompanyEvaluation{}, &models.FacultyAssessment{}))
}

func TestPerformanceGradeLadder(t *testing.T) {
	cases := map[float64]string{
		9.7: "A+", 9.5: "A+", 9.2: "A", 8.5: "B+", 8.27: "B", 8: "B",
		7.6: "C+", 7: "C", 6.5: "D", 5.9: "F", 0: "F",
	}
	for value, grade := range cases {
		assert.Equal(t, grade, PerformanceGrade(value), "rating %.2f", value)
	}
	assert.Equal(t, "Strong", RecommendationStrength(8))
	assert.Equal(t, "Moderate", RecommendationStrength(6.5))
	assert.Equal(t, "Weak", RecommendationStrength(5))
}

func TestSkillGrowth(t *testing.T) {
	growth, score := SkillGrowth(
		[]models.SkillLevel{{SkillName: "Go", Level: 4}, {SkillName: "SQL", Level: 5}, {SkillName: "Docker", Level: 6}},
		[]models.SkillLevel{{SkillName: "go", Level: 8}, {SkillName: "SQL", Level: 6}, {SkillName: "Docker", Level: 6}, {SkillName: "Kubernetes", Level: 5}},
	)
	require.Len(t, growth, 3)
	assert.Equal(t, 100.0, growth[0].GrowthPercentage)
	assert.Equal(t, "Significant Growth", growth[0].GrowthCategory)
	assert.Equal(t, "Moderate Growth", growth[1].GrowthCategory)
	assert.Equal(t, "No Change", growth[2].GrowthCategory)
	assert.Equal(t, 40.0, score)

	decline, score := SkillGrowth([]models.SkillLevel{{SkillName: "Java", Level: 5}}, []models.SkillLevel{{SkillName: "Java", Level: 4}})
	require.Len(t, decline, 1)
	assert.Equal(t, "Decline", decline[0].GrowthCategory)
	assert.Zero(t, score)
}

func TestIPPCreateLinksApplicationAndStudent(t *testing.T) {
	f := newIPPFixture(t, false)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, asha, dto.CreateIPPRequest{InternshipID: "INT001"})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, testIPPID, resp.IPPID)
	assert.Equal(t, models.IPPPendingMentorEval, resp.IPP.Status)
	assert.Equal(t, "Computer Science", resp.IPP.InternshipDetails.Domain)
	assert.Equal(t, "Backend Intern", resp.IPP.InternshipDetails.Role)
	assert.Equal(t, 2026, resp.IPP.InternshipDetails.StartDate.Year())
	assert.Equal(t, time.January, resp.IPP.InternshipDetails.StartDate.Month())

	app, err := f.applications.FindByID(ctx, "APP001")
	require.NoError(t, err)
	assert.Equal(t, testIPPID, app.IPPID)
	assert.Equal(t, models.IPPLinkInProgress, app.IPPStatus)

	student, err := f.students.FindByID(ctx, "STU001")
	require.NoError(t, err)
	assert.Contains(t, []string(student.InternshipPassports), testIPPID)
	assert.Equal(t, []string{"ipp.transition"}, f.publisher.events)

	again, err := f.svc.Create(ctx, asha, dto.CreateIPPRequest{InternshipID: "INT001"})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, testIPPID, again.IPPID)
	assert.Len(t, f.publisher.events, 1)
}

func TestIPPCreateRejections(t *testing.T) {
	f := newIPPFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, asha, dto.CreateIPPRequest{StudentID: "STU002", InternshipID: "INT001"})
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = f.svc.Create(ctx, &models.CurrentUser{ID: "STU002", Role: models.RoleStudent}, dto.CreateIPPRequest{InternshipID: "INT001"})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = f.svc.Create(ctx, admin, dto.CreateIPPRequest{InternshipID: "INT001"})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = f.svc.Create(ctx, asha, dto.CreateIPPRequest{})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestIPPEvaluationRequestBuildsMagicLink(t *testing.T) {
	f := newIPPFixture(t, false)
	ippID := f.create(t)

	link, err := f.svc.SendEvaluationRequest(context.Background(), asha, ippID, dto.EvaluationRequest{
		MentorEmail: "lead@acme.io", MentorName: "Priya Shah",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://admin.example.com/mentor/evaluate/"+testIPPID+"?token="))
	assert.Contains(t, link, "email=lead%40acme.io")
	assert.Contains(t, link, "name=Priya+Shah")

	queued := f.notifications.byType(models.NotificationIPPEvaluationRequest)
	require.Len(t, queued, 1)
	assert.Equal(t, "lead@acme.io", queued[0].RecipientEmail)
	assert.Equal(t, "Internship Evaluation Request - Asha", queued[0].Subject)
	assert.Contains(t, queued[0].Message, link)

	stored, err := f.repo.FindByID(context.Background(), ippID)
	require.NoError(t, err)
	require.NotNil(t, stored.MentorAccessToken)
	assert.Len(t, *stored.MentorAccessToken, 64)
	assert.Equal(t, f.now.Add(7*24*time.Hour), stored.MentorAccessExpiry.UTC())
	assert.Equal(t, models.IPPPendingMentorEval, stored.Status)

	_, err = f.svc.SendEvaluationRequest(context.Background(), &models.CurrentUser{ID: "STU002", Role: models.RoleStudent}, ippID,
		dto.EvaluationRequest{MentorEmail: "x@acme.io", MentorName: "X"})
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}

func TestIPPCompanyEvaluationTokenChecks(t *testing.T) {
	f := newIPPFixture(t, false)
	ctx := context.Background()
	ippID := f.create(t)
	token := f.magicToken(t, ippID)

	_, err := f.svc.SubmitCompanyEvaluation(ctx, ippID, dto.CompanyEvaluationRequest{Token: "forged", Evaluation: sampleEvaluation()})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "LINK_EXPIRED", appErr.Code)

	ipp, err := f.svc.SubmitCompanyEvaluation(ctx, ippID, dto.CompanyEvaluationRequest{Token: token, Evaluation: sampleEvaluation()})
	require.NoError(t, err)
	assert.Equal(t, models.IPPPendingStudentSubmission, ipp.Status)
	assert.Nil(t, ipp.MentorAccessToken)
	assert.True(t, ipp.Verification.CompanyVerified)
	assert.Equal(t, "lead@acme.io", ipp.Verification.CompanyVerifiedBy)
	assert.Equal(t, "Priya Shah", ipp.CompanyMentorEvaluation.MentorName)
	assert.Equal(t, "Reliable engineer", ipp.CompanyMentorEvaluation.DetailedFeedback)
	assert.True(t, ipp.CompanyMentorEvaluation.Submitted())

	_, err = f.svc.SubmitCompanyEvaluation(ctx, ippID, dto.CompanyEvaluationRequest{Token: token, Evaluation: sampleEvaluation()})
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status, "magic link is single use")
}

func TestIPPCompanyEvaluationExpiredLink(t *testing.T) {
	f := newIPPFixture(t, false)
	ippID := f.create(t)
	token := f.magicToken(t, ippID)

	f.now = f.now.Add(8 * 24 * time.Hour)
	_, err := f.svc.SubmitCompanyEvaluation(context.Background(), ippID, dto.CompanyEvaluationRequest{Token: token, Evaluation: sampleEvaluation()})
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestIPPCompanyEvaluationValidatesRatings(t *testing.T) {
	f := newIPPFixture(t, false)
	ippID := f.create(t)
	token := f.magicToken(t, ippID)

	eval := sampleEvaluation()
	eval.TechnicalSkills.CodeQuality = rating(11)
	_, err := f.svc.SubmitCompanyEvaluation(context.Background(), ippID, dto.CompanyEvaluationRequest{Token: token, Evaluation: eval})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestIPPLifecycleWithoutFacultyApproval(t *testing.T) {
	f := newIPPFixture(t, false)
	ctx := context.Background()
	ippID := f.evaluated(t)

	resp, err := f.svc.SubmitStudentSubmission(ctx, asha, ippID, dto.StudentSubmissionRequest{Submission: models.StudentSubmission{
		Reflection: "Shipped the billing service",
	}})
	require.NoError(t, err)
	assert.Equal(t, models.IPPVerified, resp.IPP.Status)
	assert.Equal(t, models.IPPFinalVerified, resp.IPP.Verification.FinalStatus)
	require.NotNil(t, resp.IPP.Summary)
	assert.Equal(t, 8.27, resp.IPP.Summary.OverallRating)
	assert.Equal(t, "B", resp.IPP.Summary.PerformanceGrade)
	assert.Equal(t, "Strong", resp.IPP.Summary.RecommendationStrength)

	certificateID := "CERT-" + testIPPID
	require.True(t, resp.IPP.Certificate.Issued())
	assert.Equal(t, certificateID, resp.IPP.Certificate.CertificateID)
	assert.True(t, strings.HasPrefix(resp.IPP.Certificate.QRCode, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(resp.CertificateURL, "https://api.example.com/certificates/"+certificateID+"."))

	download, err := f.svc.OpenSignedCertificate(ctx, path.Base(resp.CertificateURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, certificateID+".pdf", download.Filename)
	assert.Positive(t, download.SizeBytes)

	_, err = f.svc.OpenSignedCertificate(ctx, "CERT-x.1.Zm9v.bad")
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = f.svc.GetPublic(ctx, ippID)
	assert.Equal(t, "IPP not found or not public", appErrors.FromError(err).Message)

	published, err := f.svc.Publish(ctx, admin, ippID)
	require.NoError(t, err)
	assert.Equal(t, "/ipp/view/"+testIPPID, published.PublicURL)
	assert.Equal(t, models.IPPPublished, published.IPP.Status)
	assert.True(t, published.IPP.Verification.PlacementCellApproved)
	assert.Equal(t, "ADM001", published.IPP.Verification.PlacementCellApprovedBy)

	student, err := f.students.FindByID(ctx, "STU001")
	require.NoError(t, err)
	assert.Equal(t, 1, student.TotalInternshipsCompleted)
	assert.InDelta(t, 8.27, student.AverageInternshipRating, 0.001)
	assert.InDelta(t, 82.7, student.EmployabilityScore, 0.001)

	app, err := f.applications.FindByID(ctx, "APP001")
	require.NoError(t, err)
	assert.Equal(t, models.IPPLinkCompleted, app.IPPStatus)
	require.Len(t, f.notifications.byType(models.NotificationIPPStatus), 1)

	view, err := f.svc.GetPublic(ctx, ippID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.IPP.Sharing.ViewCount)
	assert.Equal(t, "Asha", view.StudentDetails.Name)

	byCertificate, err := f.svc.OpenCertificate(ctx, certificateID)
	require.NoError(t, err)
	byCertificate.File.Close()

	_, err = f.svc.SubmitStudentSubmission(ctx, asha, ippID, dto.StudentSubmissionRequest{})
	assert.Equal(t, "INVALID_STATE", appErrors.FromError(err).Code)
}

func TestIPPStudentSubmissionNeedsCompanyEvaluation(t *testing.T) {
	f := newIPPFixture(t, false)
	ippID := f.create(t)

	_, err := f.svc.SubmitStudentSubmission(context.Background(), asha, ippID, dto.StudentSubmissionRequest{})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = f.svc.SubmitStudentSubmission(context.Background(), guide, ippID, dto.StudentSubmissionRequest{})
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}

func TestIPPFacultyApprovalPath(t *testing.T) {
	f := newIPPFixture(t, true)
	ctx := context.Background()
	ippID := f.evaluated(t)

	resp, err := f.svc.SubmitStudentSubmission(ctx, asha, ippID, dto.StudentSubmissionRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.IPPPendingFacultyApproval, resp.IPP.Status)
	assert.Empty(t, resp.CertificateURL)

	_, err = f.svc.SubmitFacultyAssessment(ctx, asha, ippID, dto.FacultyAssessmentRequest{Assessment: models.FacultyAssessment{ApprovalStatus: models.FacultyApproved}})
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = f.svc.SubmitFacultyAssessment(ctx, guide, ippID, dto.FacultyAssessmentRequest{Assessment: models.FacultyAssessment{ApprovalStatus: "maybe"}})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	revised, err := f.svc.SubmitFacultyAssessment(ctx, guide, ippID, dto.FacultyAssessmentRequest{Assessment: models.FacultyAssessment{
		ApprovalStatus: models.FacultyNeedsRevision,
	}})
	require.NoError(t, err)
	assert.Equal(t, models.IPPPendingStudentSubmission, revised.Status)
	assert.Equal(t, models.IPPFinalRejected, revised.Verification.FinalStatus)
	assert.False(t, revised.Verification.FacultyApproved)

	approved, err := f.svc.SubmitFacultyAssessment(ctx, guide, ippID, dto.FacultyAssessmentRequest{Assessment: models.FacultyAssessment{
		ApprovalStatus:   models.FacultyApproved,
		LearningOutcomes: &models.LearningOutcomes{IndustryExposure: rating(9), ProfessionalGrowth: rating(7)},
	}})
	require.NoError(t, err)
	assert.Equal(t, models.IPPVerified, approved.Status)
	assert.True(t, approved.Verification.FacultyApproved)
	assert.Equal(t, "MEN002", approved.FacultyAssessment.FacultyID)
	assert.Equal(t, "Dr. Rao", approved.FacultyAssessment.FacultyName)
	assert.Equal(t, 8.18, approved.Summary.OverallRating)
	assert.True(t, approved.Certificate.Issued())
}

func TestIPPPublishRequiresVerifiedAndAdmin(t *testing.T) {
	f := newIPPFixture(t, false)
	ippID := f.evaluated(t)

	_, err := f.svc.Publish(context.Background(), guide, ippID)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = f.svc.Publish(context.Background(), admin, ippID)
	assert.Equal(t, "INVALID_STATE", appErrors.FromError(err).Code)

	_, err = f.svc.Publish(context.Background(), admin, "IPP-missing")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestIPPUploadDocument(t *testing.T) {
	f := newIPPFixture(t, false)
	ctx := context.Background()
	ippID := f.create(t)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF\n")
	_, err := f.svc.UploadDocument(ctx, asha, ippID, IPPUpload{Filename: "offer.pdf", Size: 11 * 1024 * 1024, Content: bytes.NewReader(pdf)})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.Status)
	assert.Equal(t, "File size must be less than 10MB", appErr.Message)

	text := []byte("just some notes")
	_, err = f.svc.UploadDocument(ctx, asha, ippID, IPPUpload{Filename: "notes.pdf", Size: int64(len(text)), Content: bytes.NewReader(text)})
	assert.Equal(t, http.StatusUnsupportedMediaType, appErrors.FromError(err).Status)

	_, err = f.svc.UploadDocument(ctx, &models.CurrentUser{ID: "STU002", Role: models.RoleStudent}, ippID,
		IPPUpload{Filename: "offer.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	doc, err := f.svc.UploadDocument(ctx, asha, ippID, IPPUpload{Filename: "offer.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	require.NoError(t, err)
	assert.Equal(t, storage.ResourceRaw, doc.ResourceType)
	assert.Equal(t, int64(len(pdf)), doc.Bytes)
	assert.True(t, strings.HasPrefix(doc.FileURL, "/uploads/campus_buddy/ipp_documents/"+testIPPID+"/doc_"))

	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	image, err := f.svc.UploadDocument(ctx, asha, ippID, IPPUpload{Filename: "badge.png", Size: int64(len(png)), Content: bytes.NewReader(png)})
	require.NoError(t, err)
	assert.Equal(t, storage.ResourceImage, image.ResourceType)

	stored, err := f.repo.FindByID(ctx, ippID)
	require.NoError(t, err)
	require.Len(t, stored.StudentSubmission.Documents, 2)
	assert.Equal(t, "application/pdf", stored.StudentSubmission.Documents[0].Type)
}

func TestIPPSkillAssessment(t *testing.T) {
	f := newIPPFixture(t, false)
	ippID := f.create(t)

	ipp, err := f.svc.UpdateSkillAssessment(context.Background(), asha, ippID, dto.SkillAssessmentRequest{
		SkillAssessment: models.SkillAssessment{
			PreAssessment:  []models.SkillLevel{{SkillName: "Go", Level: 4}},
			PostAssessment: []models.SkillLevel{{SkillName: "Go", Level: 6}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, ipp.Summary.SkillGrowthScore)
	require.Len(t, ipp.SkillAssessment.SkillGrowth, 1)

	override := 72.5
	ipp, err = f.svc.UpdateSkillAssessment(context.Background(), asha, ippID, dto.SkillAssessmentRequest{SkillGrowthScore: &override})
	require.NoError(t, err)
	assert.Equal(t, 72.5, ipp.Summary.SkillGrowthScore)

	bad := 140.0
	_, err = f.svc.UpdateSkillAssessment(context.Background(), asha, ippID, dto.SkillAssessmentRequest{SkillGrowthScore: &bad})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestIPPListingsAttachStudents(t *testing.T) {
	f := newIPPFixture(t, false)
	ctx := context.Background()
	f.create(t)

	views, err := f.svc.List(ctx, dto.IPPQuery{Status: string(models.IPPPendingMentorEval)})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Asha", views[0].StudentDetails.Name)
	assert.Equal(t, "CSE", views[0].StudentDetails.Department)

	views, err = f.svc.List(ctx, dto.IPPQuery{Company: "Globex"})
	require.NoError(t, err)
	assert.Empty(t, views)

	mine, err := f.svc.ListByStudent(ctx, asha, "STU001")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.ListByStudent(ctx, asha, "STU002")
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = f.svc.Get(ctx, &models.CurrentUser{ID: "STU002", Role: models.RoleStudent}, testIPPID)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}
