package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = "AUDIT-test"
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, adminID string, limit int) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AuditLog(nil), f.entries...), nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type internshipFixture struct {
	svc           *InternshipService
	internships   *fakeInternshipRepo
	applications  *fakeApplicationRepo
	notifications *fakeNotificationRepo
	audit         *fakeAuditRepo
	publisher     *recordingPublisher
}

func newInternshipFixture(internships []models.Internship, students []models.Student, applications []models.Application) internshipFixture {
	f := internshipFixture{
		internships:   newFakeInternshipRepo(internships...),
		applications:  newFakeApplicationRepo(applications...),
		notifications: newFakeNotificationRepo(),
		audit:         &fakeAuditRepo{},
		publisher:     &recordingPublisher{},
	}
	mentors := &fakeMentors{recruiters: map[string]models.Recruiter{
		"REC001": {ID: "REC001", Company: "Acme Labs", CompanyLogo: "https://cdn.example.com/acme.png"},
	}}
	f.svc = NewInternshipService(
		f.internships,
		newFakeStudentRepo(students...),
		f.applications,
		mentors,
		NewNotificationScheduler(f.notifications, nil),
		NewAuditService(f.audit, nil),
		nil,
		f.publisher,
		nil,
		zap.NewNop(),
	)
	return f
}

func TestRecommendScoresSkillsAndRelaxedMinimums(t *testing.T) {
	student := &models.CurrentUser{ID: "STU001", Role: models.RoleStudent, CGPA: 6.5, Semester: 3, Skills: []string{" react ", "Node.js"}}
	internship := &models.Internship{ID: "INT001", RequiredSkills: []string{"React", "Node.js", "MongoDB", "AWS"}, MinimumCGPA: 8.0, MinimumSemester: 6}

	rec := Recommend(student, internship, nil, time.Now())
	assert.Equal(t, 80, rec.Score)
	assert.True(t, rec.Eligible)
	assert.False(t, rec.HasApplied)
	assert.Nil(t, rec.CooldownHours)

	strict := &models.Internship{RequiredSkills: []string{"Go"}, MinimumCGPA: 9.0, MinimumSemester: 8}
	rec = Recommend(student, strict, nil, time.Now())
	assert.Equal(t, 30, rec.Score)
	assert.False(t, rec.Eligible)

	empty := &models.Internship{MinimumCGPA: 6, MinimumSemester: 4}
	assert.Equal(t, 60, Recommend(student, empty, nil, time.Now()).Score)
}

func TestRecommendRejectionCooldown(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	student := &models.CurrentUser{ID: "STU001", Role: models.RoleStudent}
	internship := &models.Internship{ID: "INT001"}

	recent := now.Add(-5*time.Hour - 30*time.Minute)
	rec := Recommend(student, internship, &models.Application{Status: models.ApplicationRejected, RejectedAt: &recent}, now)
	assert.True(t, rec.HasApplied)
	require.NotNil(t, rec.CooldownHours)
	assert.Equal(t, 19, *rec.CooldownHours)

	old := now.Add(-25 * time.Hour)
	rec = Recommend(student, internship, &models.Application{Status: models.ApplicationRejected, RejectedAt: &old}, now)
	assert.False(t, rec.HasApplied)
	assert.Nil(t, rec.CooldownHours)

	rec = Recommend(student, internship, &models.Application{Status: models.ApplicationApplied, UpdatedAt: old}, now)
	assert.True(t, rec.HasApplied)
}

func TestInternshipServiceListFiltersAndDecorates(t *testing.T) {
	f := newInternshipFixture([]models.Internship{
		{ID: "INT001", Title: "Frontend", Company: "Acme", Location: "Pune", Status: models.InternshipActive, RequiredSkills: []string{"React"}, Stipend: "₹20,000/month"},
		{ID: "INT002", Title: "Backend", Company: "Globex", Location: "Remote", Status: models.InternshipActive, RequiredSkills: []string{"Go", "SQL"}, Stipend: "₹35,000/month"},
		{ID: "INT003", Title: "Pending", Company: "Initech", Status: models.InternshipSubmitted},
	}, nil, []models.Application{{ID: "APP001", StudentID: "STU001", InternshipID: "INT002", Status: models.ApplicationApplied}})

	student := &models.CurrentUser{ID: "STU001", Role: models.RoleStudent, Skills: []string{"go", "sql"}, CGPA: 8, Semester: 6}
	views, err := f.svc.List(context.Background(), student, dto.InternshipQuery{Recommended: true})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "INT002", views[0].ID)
	assert.Equal(t, 100, *views[0].RecommendationScore)
	assert.True(t, *views[0].HasApplied)
	assert.False(t, *views[1].HasApplied)

	views, err = f.svc.List(context.Background(), nil, dto.InternshipQuery{MinStipend: 30000})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "INT002", views[0].ID)
	assert.Nil(t, views[0].RecommendationScore)

	views, err = f.svc.List(context.Background(), nil, dto.InternshipQuery{Skills: "react, vue", Location: "pune"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "INT001", views[0].ID)

	views, err = f.svc.List(context.Background(), student, dto.InternshipQuery{Status: "submitted"})
	require.NoError(t, err)
	assert.Empty(t, views)

	admin := &models.CurrentUser{ID: "ADM001", Role: models.RoleAdmin}
	views, err = f.svc.List(context.Background(), admin, dto.InternshipQuery{Status: "submitted"})
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestInternshipServiceCreateSchedulesRemindersAndAudits(t *testing.T) {
	deadline := time.Now().Add(10 * 24 * time.Hour).UTC().Format(time.RFC3339)
	f := newInternshipFixture(
		[]models.Internship{{ID: "INT105", Status: models.InternshipClosed}},
		[]models.Student{
			{ID: "STU001", Email: "a@college.edu", Department: "CSE", CGPA: 8, Semester: 6},
			{ID: "STU002", Email: "b@college.edu", Department: "ME", CGPA: 9, Semester: 6},
		},
		nil,
	)
	admin := &models.CurrentUser{ID: "ADM001", Role: models.RoleAdmin}

	created, err := f.svc.Create(context.Background(), admin, dto.InternshipPayload{
		Title: "ML Intern", Company: "Acme", Description: "Models", RequiredSkills: []string{"Python"},
		EligibleDepartments: []string{"CSE"}, ApplicationDeadline: deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, "INT106", created.ID)
	assert.Equal(t, models.InternshipActive, created.Status)
	assert.Equal(t, defaultMinimumSemester, created.MinimumSemester)
	assert.Equal(t, defaultMinimumCGPA, created.MinimumCGPA)
	assert.Equal(t, models.WorkModeOnSite, created.WorkMode)
	assert.Len(t, f.notifications.byType(models.NotificationDeadlineReminder), 4)
	assert.Equal(t, []string{models.AuditActionCreateInternship}, f.audit.actions())
	assert.NotEmpty(t, f.publisher.events)

	_, err = f.svc.Create(context.Background(), admin, dto.InternshipPayload{Title: "No company", Description: "x", RequiredSkills: []string{"Go"}, EligibleDepartments: []string{"IT"}})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestInternshipServiceSubmitApproveReject(t *testing.T) {
	f := newInternshipFixture(nil, nil, nil)
	recruiter := &models.CurrentUser{ID: "REC001", Role: models.RoleRecruiter}
	admin := &models.CurrentUser{ID: "ADM001", Role: models.RoleAdmin}
	payload := dto.InternshipPayload{
		Title: "Data Intern", Description: "Pipelines", RequiredSkills: []string{"SQL"}, EligibleDepartments: []string{"IT"},
		ApplicationDeadline: "15-08-2026", StartDate: "2026-09-01",
	}

	submitted, err := f.svc.Submit(context.Background(), recruiter, payload)
	require.NoError(t, err)
	assert.Equal(t, "INT001", submitted.ID)
	assert.Equal(t, "Acme Labs", submitted.Company)
	assert.Equal(t, models.InternshipSubmitted, submitted.Status)
	require.NotNil(t, submitted.ApplicationDeadline)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *submitted.ApplicationDeadline)

	_, err = f.svc.Reject(context.Background(), admin, submitted.ID, dto.ReviewInternshipRequest{})
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	approved, err := f.svc.Approve(context.Background(), admin, submitted.ID, dto.ReviewInternshipRequest{AdminNotes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.InternshipActive, approved.Status)
	assert.Equal(t, "REC001", approved.PostedBy)
	assert.Equal(t, models.RoleRecruiter, approved.PostedByRole)

	_, err = f.svc.Approve(context.Background(), admin, submitted.ID, dto.ReviewInternshipRequest{})
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	second, err := f.svc.Submit(context.Background(), recruiter, payload)
	require.NoError(t, err)
	rejected, err := f.svc.Reject(context.Background(), admin, second.ID, dto.ReviewInternshipRequest{RejectionReason: "Incomplete"})
	require.NoError(t, err)
	assert.Equal(t, models.InternshipRejected, rejected.Status)
	assert.Equal(t, []string{models.AuditActionApproveInternship, models.AuditActionRejectInternship}, f.audit.actions())

	_, err = f.svc.Submit(context.Background(), recruiter, dto.InternshipPayload{
		Title: "Bad date", Description: "x", RequiredSkills: []string{"Go"}, EligibleDepartments: []string{"IT"}, StartDate: "someday",
	})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestInternshipServiceUpdateAndDeleteOwnership(t *testing.T) {
	f := newInternshipFixture([]models.Internship{
		{ID: "INT001", Title: "Old", SubmittedBy: "REC001", PostedBy: "REC001", Status: models.InternshipActive},
		{ID: "INT002", Title: "Waiting", SubmittedBy: "REC001", Status: models.InternshipSubmitted},
	}, nil, nil)
	owner := &models.CurrentUser{ID: "REC001", Role: models.RoleRecruiter}
	other := &models.CurrentUser{ID: "REC002", Role: models.RoleRecruiter}
	admin := &models.CurrentUser{ID: "ADM001", Role: models.RoleAdmin}
	title := "New"

	_, err := f.svc.Update(context.Background(), other, "INT001", dto.UpdateInternshipRequest{Title: &title})
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	_, err = f.svc.Update(context.Background(), owner, "INT002", dto.UpdateInternshipRequest{Title: &title})
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	updated, err := f.svc.Update(context.Background(), owner, "INT001", dto.UpdateInternshipRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Empty(t, f.audit.actions())

	_, err = f.svc.Delete(context.Background(), admin, "INT002")
	require.NoError(t, err)
	assert.Equal(t, []string{"INT002"}, f.internships.deleted)
	assert.Equal(t, []string{models.AuditActionDeleteInternship}, f.audit.actions())

	_, err = f.svc.Delete(context.Background(), admin, "INT404")
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestInternshipServiceStats(t *testing.T) {
	f := newInternshipFixture([]models.Internship{
		{ID: "INT001", Company: "Acme", Location: "Pune", Status: models.InternshipActive, CurrentApplications: 3},
		{ID: "INT002", Company: "Acme", Location: "Remote", Status: models.InternshipClosed, CurrentApplications: 2},
		{ID: "INT003", Company: "Globex", Location: "Pune", Status: models.InternshipSubmitted},
	}, nil, nil)

	stats, _, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 2, stats.ByCompany["Acme"])
	assert.Equal(t, 2, stats.ByLocation["Pune"])
	assert.Equal(t, 5, stats.TotalApplications)
}
