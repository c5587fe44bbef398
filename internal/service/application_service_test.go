package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type applicationFixture struct {
	svc           *ApplicationService
	applications  *fakeApplicationRepo
	internships   *fakeInternshipRepo
	students      *fakeStudentRepo
	notifications *fakeNotificationRepo
	publisher     *recordingPublisher
	now           time.Time
}

func newApplicationFixture(apps ...models.Application) applicationFixture {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	f := applicationFixture{
		applications: newFakeApplicationRepo(apps...),
		internships: newFakeInternshipRepo(
			models.Internship{ID: "INT001", Title: "Backend Intern", Company: "Acme", Status: models.InternshipActive,
				EligibleDepartments: []string{"Computer Science"}, MinimumCGPA: 8, MinimumSemester: 6, CurrentApplications: 1},
			models.Internship{ID: "INT002", Title: "Plant Intern", Company: "Forge", Status: models.InternshipActive,
				EligibleDepartments: []string{"Mechanical"}, MinimumCGPA: 9, MinimumSemester: 8},
		),
		students: newFakeStudentRepo(
			models.Student{ID: "STU001", Name: "Asha", Email: "asha@college.edu", Department: "CSE", CGPA: 7.5, Semester: 5, AssignedMentor: "MEN002"},
			models.Student{ID: "STU002", Name: "Ravi", Email: "ravi@college.edu", Department: "ECE", CGPA: 5.0, Semester: 3},
			models.Student{ID: "STU003", Name: "Neha", Email: "neha@college.edu", Department: models.DepartmentUnspecified},
		),
		notifications: newFakeNotificationRepo(),
		publisher:     &recordingPublisher{},
		now:           now,
	}
	mentors := &fakeMentors{mentors: []models.Mentor{
		{ID: "MEN001", Name: "Dr. Iyer", Email: "iyer@college.edu", Department: "Mechanical"},
		{ID: "MEN002", Name: "Dr. Rao", Email: "rao@college.edu", Department: "CSE"},
		{ID: "MEN003", Name: "Dr. Sen", Email: "sen@college.edu", Department: "ECE"},
	}}
	scheduler := NewNotificationScheduler(f.notifications, nil)
	scheduler.now = func() time.Time { return now }
	f.svc = NewApplicationService(f.applications, f.internships, f.students, mentors, scheduler, nil, f.publisher, nil, zap.NewNop())
	f.svc.now = func() time.Time { return now }
	return f
}

func studentUser(id string) *models.CurrentUser {
	return &models.CurrentUser{ID: id, Role: models.RoleStudent}
}

func TestApplyCreatesApplicationWithMentor(t *testing.T) {
	f := newApplicationFixture(models.Application{ID: "APP007", StudentID: "STU009", InternshipID: "INT002"})

	app, err := f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT001", CoverLetter: "<p>Keen</p>"})
	require.NoError(t, err)
	assert.Equal(t, "APP008", app.ID)
	assert.Equal(t, "MEN002", app.MentorID)
	assert.Equal(t, models.ApplicationPendingMentorApproval, app.Status)
	assert.Equal(t, "Keen", app.CoverLetter)
	assert.Equal(t, 2, f.internships.internships["INT001"].CurrentApplications)
	assert.Len(t, f.notifications.byType(models.NotificationMentorApprovalReminder), 3)
	assert.Contains(t, f.publisher.events, "application.created")
}

func TestApplyMentorSelectionOrder(t *testing.T) {
	f := newApplicationFixture()

	app, err := f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT002", CoverLetter: "x", MentorID: "MEN001"})
	require.NoError(t, err)
	assert.Equal(t, "MEN001", app.MentorID)

	app, err = f.svc.Apply(context.Background(), studentUser("STU002"), dto.CreateApplicationRequest{InternshipID: "INT001", CoverLetter: "x"})
	require.Error(t, err)
	assert.Nil(t, app)

	app, err = f.svc.Apply(context.Background(), studentUser("STU003"), dto.CreateApplicationRequest{InternshipID: "INT002", CoverLetter: "x"})
	require.NoError(t, err)
	assert.Equal(t, "MEN001", app.MentorID)
}

func TestApplyRejectsDuplicatesAndEnforcesCooldown(t *testing.T) {
	rejected := time.Date(2026, 5, 4, 0, 30, 0, 0, time.UTC)
	f := newApplicationFixture(
		models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", Status: models.ApplicationRejected, RejectedAt: &rejected},
		models.Application{ID: "APP002", StudentID: "STU001", InternshipID: "INT002", Status: models.ApplicationApplied},
	)

	_, err := f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT001", CoverLetter: "again"})
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrCooldownActive.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, 15, appErr.Details["cooldownRemaining"])

	_, err = f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT002", CoverLetter: "again"})
	assert.Contains(t, appErrors.FromError(err).Message, "already applied")

	f.svc.now = func() time.Time { return rejected.Add(24*time.Hour + time.Minute) }
	app, err := f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT001", CoverLetter: "again"})
	require.NoError(t, err)
	assert.Equal(t, "APP003", app.ID)
	_, stillThere := f.applications.applications["APP001"]
	assert.False(t, stillThere)
}

func TestApplyFailsWhenStoreUnavailable(t *testing.T) {
	f := newApplicationFixture()
	f.applications.unavailable = true

	_, err := f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT001", CoverLetter: "x"})
	assert.Equal(t, 503, appErrors.FromError(err).Status)

	f.applications.unavailable = false
	_, err = f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT404", CoverLetter: "x"})
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	_, err = f.svc.Apply(context.Background(), studentUser("STU001"), dto.CreateApplicationRequest{InternshipID: "INT001"})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestCheckEligibility(t *testing.T) {
	internship := &models.Internship{EligibleDepartments: []string{"Electronics"}, MinimumCGPA: 8, MinimumSemester: 6}
	cases := []struct {
		name    string
		student models.Student
		want    bool
	}{
		{"alias match", models.Student{Department: "ECE", CGPA: 6.6, Semester: 4}, true},
		{"tech student anywhere", models.Student{Department: "IT", CGPA: 7, Semester: 5}, true},
		{"other department", models.Student{Department: "Civil", CGPA: 9, Semester: 6}, false},
		{"low cgpa", models.Student{Department: "ECE", CGPA: 5.9, Semester: 6}, false},
		{"low semester", models.Student{Department: "ECE", CGPA: 7, Semester: 3}, false},
		{"incomplete profile", models.Student{Department: models.DepartmentUnspecified}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := CheckEligibility(&tc.student, internship)
			assert.Equal(t, tc.want, ok)
			if !tc.want {
				assert.True(t, strings.HasPrefix(reason, "You are not eligible"))
			}
		})
	}
}

func TestUpdateStatusByMentor(t *testing.T) {
	f := newApplicationFixture(models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", MentorID: "MEN002", Status: models.ApplicationPendingMentorApproval})
	mentor := &models.CurrentUser{ID: "MEN002", Role: models.RoleMentor}
	otherMentor := &models.CurrentUser{ID: "MEN001", Role: models.RoleMentor}

	_, err := f.svc.UpdateStatus(context.Background(), otherMentor, "APP001", dto.UpdateApplicationStatusRequest{Status: models.ApplicationApproved})
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	res, err := f.svc.UpdateStatus(context.Background(), mentor, "APP001", dto.UpdateApplicationStatusRequest{Status: models.ApplicationRejected, Feedback: "Profile mismatch"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, res.Application.Status)
	assert.Equal(t, "rejected", res.Application.MentorApproval)
	assert.Equal(t, "Profile mismatch", res.Application.MentorFeedback)
	require.NotNil(t, res.Application.RejectedAt)
	assert.Equal(t, f.now, *res.Application.RejectedAt)
	assert.Equal(t, "asha@college.edu", res.Student.Email)
	assert.Equal(t, "Backend Intern", res.Internship.Title)

	status := f.notifications.byType(models.NotificationApplicationStatus)
	require.Len(t, status, 1)
	assert.Equal(t, "Application rejected - Backend Intern", status[0].Subject)

	_, err = f.svc.UpdateStatus(context.Background(), mentor, "APP001", dto.UpdateApplicationStatusRequest{Status: "teleported"})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestUpdateStatusSchedulesRemindersAndMarksPlaced(t *testing.T) {
	f := newApplicationFixture(models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", Status: models.ApplicationApproved})
	admin := &models.CurrentUser{ID: "ADM001", Role: models.RoleAdmin}

	interview := &models.InterviewDetails{Date: f.now.Add(48 * time.Hour), Mode: "Online"}
	_, err := f.svc.UpdateStatus(context.Background(), admin, "APP001", dto.UpdateApplicationStatusRequest{Status: models.ApplicationInterviewScheduled, InterviewDetails: interview})
	require.NoError(t, err)
	assert.Len(t, f.notifications.byType(models.NotificationInterviewReminder), 2)

	expiry := f.now.Add(4 * 24 * time.Hour)
	_, err = f.svc.UpdateStatus(context.Background(), admin, "APP001", dto.UpdateApplicationStatusRequest{Status: models.ApplicationOffered, OfferDetails: &models.OfferDetails{Stipend: "30000", OfferExpiry: &expiry}})
	require.NoError(t, err)
	assert.Len(t, f.notifications.byType(models.NotificationOfferExpiryReminder), 3)

	res, err := f.svc.UpdateStatus(context.Background(), admin, "APP001", dto.UpdateApplicationStatusRequest{Status: models.ApplicationAccepted, Feedback: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome", res.Application.Feedback)
	assert.Equal(t, models.PlacementPlaced, f.students.students["STU001"].PlacementStatus)
	assert.Len(t, f.notifications.byType(models.NotificationApplicationStatus), 3)
}

func TestWithdrawApplication(t *testing.T) {
	f := newApplicationFixture(
		models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", Status: models.ApplicationApplied},
		models.Application{ID: "APP002", StudentID: "STU001", InternshipID: "INT002", Status: models.ApplicationOffered},
	)

	assert.Equal(t, 403, appErrors.FromError(f.svc.Withdraw(context.Background(), studentUser("STU002"), "APP001")).Status)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(f.svc.Withdraw(context.Background(), studentUser("STU001"), "APP002")).Code)

	require.NoError(t, f.svc.Withdraw(context.Background(), studentUser("STU001"), "APP001"))
	assert.NotContains(t, f.applications.applications, "APP001")
	assert.Equal(t, 0, f.internships.internships["INT001"].CurrentApplications)
}

func TestListApplicationsByRole(t *testing.T) {
	f := newApplicationFixture(
		models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", MentorID: "MEN002", Status: models.ApplicationPendingMentorApproval},
		models.Application{ID: "APP002", StudentID: "STU002", InternshipID: "INT002", MentorID: "MEN003", Status: models.ApplicationApplied},
	)

	mine, err := f.svc.List(context.Background(), studentUser("STU002"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Forge", mine[0].Internship.Company)
	assert.Equal(t, "Ravi", mine[0].Student.Name)

	pending, err := f.svc.PendingForMentor(context.Background(), &models.CurrentUser{ID: "MEN002", Role: models.RoleMentor})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "APP001", pending[0].ID)

	all, err := f.svc.List(context.Background(), &models.CurrentUser{ID: "REC001", Role: models.RoleRecruiter})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.List(context.Background(), &models.CurrentUser{ID: "X", Role: "guest"})
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	_, err = f.svc.Get(context.Background(), studentUser("STU002"), "APP001")
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestApplicationAnalyticsAndExport(t *testing.T) {
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	var apps []models.Application
	for i := 0; i < 12; i++ {
		status := models.ApplicationApplied
		if i%3 == 0 {
			status = models.ApplicationRejected
		}
		apps = append(apps, models.Application{
			ID: "APP0" + string(rune('A'+i)), StudentID: "STU001", InternshipID: "INT001", Status: status,
			AppliedAt: base.AddDate(0, i/6, i),
		})
	}
	f := newApplicationFixture(apps...)

	analytics, _, err := f.svc.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, analytics.Total)
	assert.Equal(t, 4, analytics.ByStatus["rejected"])
	assert.Equal(t, 6, analytics.ByMonth["Jan 2026"])
	assert.Len(t, analytics.RecentApplications, recentApplicationsLimit)

	file, err := f.svc.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "applications-20260504.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	assert.Len(t, lines, 13)
	assert.True(t, strings.HasPrefix(lines[0], "Application ID,Student,Email"))
	assert.Contains(t, lines[1], "Asha")

	_, err = f.svc.Export(context.Background(), "xlsx")
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}
