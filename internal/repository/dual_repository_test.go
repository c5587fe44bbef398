package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/jsonstore"
)

func seed[T any](t *testing.T, dir, name string, items ...T) {
	t.Helper()
	col := jsonstore.Open[T](dir, name)
	require.NoError(t, col.Mutate(func(existing []T) ([]T, error) { return append(existing, items...), nil }))
}

func TestDualInternshipReadsDatabaseWhenAvailable(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	dir := t.TempDir()
	seed(t, dir, FileInternships, models.Internship{ID: "INT009", Title: "Mirror only"})
	observer := &countingObserver{}
	repo := NewDualInternshipRepository(NewInternshipRepository(db), dir, staticAvailability(true), observer, nil)

	mock.ExpectQuery(`FROM internships WHERE id = \$1 LIMIT 1`).
		WithArgs("INT001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).AddRow("INT001", "Backend Intern", "active"))

	internship, err := repo.FindByID(context.Background(), "INT001")
	require.NoError(t, err)
	assert.Equal(t, "Backend Intern", internship.Title)
	assert.Empty(t, observer.reads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDualInternshipFallsBackToMirror(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, FileInternships,
		models.Internship{ID: "INT001", Title: "Backend Intern", Status: models.InternshipActive, CreatedAt: time.Now().Add(-time.Hour)},
		models.Internship{ID: "INT002", Title: "Data Intern", Status: models.InternshipSubmitted, SubmittedBy: "REC001", CreatedAt: time.Now()},
	)
	observer := &countingObserver{}
	repo := NewDualInternshipRepository(NewInternshipRepository(nil), dir, staticAvailability(false), observer, nil)
	ctx := context.Background()

	internship, err := repo.FindByID(ctx, "INT002")
	require.NoError(t, err)
	assert.Equal(t, "Data Intern", internship.Title)

	active, err := repo.List(ctx, models.InternshipFilter{Status: models.InternshipActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "INT001", active[0].ID)

	owned, err := repo.List(ctx, models.InternshipFilter{OwnerID: "REC001"})
	require.NoError(t, err)
	require.Len(t, owned, 1)

	n, err := repo.MaxSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, observer.reads[FileInternships])
}

func TestDualApplicationWritesMirrorWhenUnavailable(t *testing.T) {
	dir := t.TempDir()
	repo := NewDualApplicationRepository(NewApplicationRepository(nil), dir, staticAvailability(false), nil, nil)
	ctx := context.Background()

	app := &models.Application{ID: "APP001", StudentID: "STU001", InternshipID: "INT001", Status: models.ApplicationApplied}
	require.NoError(t, repo.Create(ctx, app))
	assert.ErrorIs(t, repo.Create(ctx, app), ErrDuplicate)

	app.Status = models.ApplicationRejected
	require.NoError(t, repo.Update(ctx, app))

	stored, err := repo.FindByStudentAndInternship(ctx, "STU001", "INT001")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, stored.Status)
	assert.Equal(t, models.IPPLinkNotApplicable, stored.IPPStatus)

	require.NoError(t, repo.Delete(ctx, "APP001"))
	_, err = repo.FindByID(ctx, "APP001")
	assert.True(t, IsNotFound(err))
}

func TestDualApplicationMirrorsDatabaseWrites(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	dir := t.TempDir()
	repo := NewDualApplicationRepository(NewApplicationRepository(db), dir, staticAvailability(true), nil, nil)

	mock.ExpectExec("INSERT INTO applications").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), &models.Application{ID: "APP003", StudentID: "STU001", InternshipID: "INT001"}))
	assert.NoError(t, mock.ExpectationsWereMet())

	items, err := jsonstore.Open[models.Application](dir, FileApplications).Load()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "APP003", items[0].ID)
}

func TestDualIPPMergesBothStores(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	dir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)
	seed(t, dir, FileIPPs,
		models.IPP{IPPID: "IPP-A", StudentID: "STU001", Status: models.IPPDraft, CreatedAt: old, UpdatedAt: old},
		models.IPP{IPPID: "IPP-B", StudentID: "STU001", Status: models.IPPPendingMentorEval, CreatedAt: time.Now()},
	)
	repo := NewDualIPPRepository(NewIPPRepository(db), dir, staticAvailability(true), nil, nil)

	mock.ExpectQuery(`(?s)FROM ipps ORDER BY COALESCE\(updated_at, created_at\) DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"ipp_id", "student_id", "status", "created_at", "updated_at"}).
			AddRow("IPP-A", "STU001", "verified", old, time.Now().Add(-time.Hour)))

	ipps, err := repo.List(context.Background(), models.IPPFilter{})
	require.NoError(t, err)
	require.Len(t, ipps, 2)
	assert.Equal(t, "IPP-B", ipps[0].IPPID)
	assert.Equal(t, models.OriginJSON, ipps[0].Origin)
	assert.Equal(t, "IPP-A", ipps[1].IPPID)
	assert.Equal(t, models.IPPVerified, ipps[1].Status)
	assert.Equal(t, models.OriginDatabase, ipps[1].Origin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDualIPPFindSubstitutesMirrorAndSavesToOrigin(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	dir := t.TempDir()
	seed(t, dir, FileIPPs, models.IPP{IPPID: "IPP-J", StudentID: "STU002", Status: models.IPPPendingMentorEval})
	repo := NewDualIPPRepository(NewIPPRepository(db), dir, staticAvailability(true), nil, nil)
	ctx := context.Background()

	mock.ExpectQuery(`FROM ipps WHERE ipp_id = \$1`).WithArgs("IPP-J").
		WillReturnRows(sqlmock.NewRows([]string{"ipp_id"}))

	ipp, err := repo.FindByID(ctx, "IPP-J")
	require.NoError(t, err)
	assert.Equal(t, models.OriginJSON, ipp.Origin)

	ipp.Status = models.IPPPendingStudentSubmission
	require.NoError(t, repo.Save(ctx, ipp))
	assert.NoError(t, mock.ExpectationsWereMet())

	stored, err := jsonstore.Open[models.IPP](dir, FileIPPs).Find(func(p models.IPP) bool { return p.IPPID == "IPP-J" })
	require.NoError(t, err)
	assert.Equal(t, models.IPPPendingStudentSubmission, stored.Status)
}

func TestPrincipalFindLegacyScansMirrorByIDOrEmail(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, FileStudents, models.Student{ID: "STU001", Email: "asha@college.edu", Name: "Asha"})
	seed(t, dir, FileMentors, models.Mentor{ID: "MEN001", Email: "rao@college.edu", Name: "Dr Rao", AssignedStudents: []string{"STU001"}})
	repo := NewPrincipalRepository(NewStudentRepository(nil), NewStaffRepository(nil), dir, staticAvailability(false), nil, nil)
	ctx := context.Background()

	user, err := repo.FindLegacy(ctx, "unknown", "rao@college.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, user.Role)
	assert.Equal(t, []string{"STU001"}, user.AssignedStudents)

	user, err = repo.FindLegacy(ctx, "STU001", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)

	_, err = repo.FindLegacy(ctx, "nobody", "nobody@college.edu")
	assert.ErrorIs(t, err, ErrNotFoundPrincipal)
}

func TestPrincipalFindLegacyChecksTablesInOrder(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewPrincipalRepository(NewStudentRepository(db), NewStaffRepository(db), t.TempDir(), staticAvailability(true), nil, nil)

	mock.ExpectQuery(`FROM students WHERE id = \$1 AND LOWER\(email\) = LOWER\(\$2\)`).
		WithArgs("ADM001", "admin@college.edu").WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(`FROM admins WHERE id = \$1 AND LOWER\(email\) = LOWER\(\$2\)`).
		WithArgs("ADM001", "admin@college.edu").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("ADM001", "Placement Cell", "admin@college.edu", "hash", "admin", time.Now(), time.Now()))

	user, err := repo.FindLegacy(context.Background(), "ADM001", "admin@college.edu")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDualNotificationDueAndStatsFromMirror(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC()
	seed(t, dir, FileNotifications,
		models.ScheduledNotification{NotificationID: "N2", Type: models.NotificationDeadlineReminder, Status: models.NotificationPending, ScheduledTime: now.Add(-time.Minute)},
		models.ScheduledNotification{NotificationID: "N1", Type: models.NotificationDeadlineReminder, Status: models.NotificationPending, ScheduledTime: now.Add(-time.Hour)},
		models.ScheduledNotification{NotificationID: "N3", Type: models.NotificationManual, Status: models.NotificationPending, ScheduledTime: now.Add(time.Hour)},
		models.ScheduledNotification{NotificationID: "N4", Type: models.NotificationManual, Status: models.NotificationSent, ScheduledTime: now.Add(-time.Hour), CreatedAt: now.Add(-40 * 24 * time.Hour)},
	)
	repo := NewDualNotificationRepository(NewNotificationRepository(nil), dir, staticAvailability(false), nil, nil)
	ctx := context.Background()

	due, err := repo.Due(ctx, now, 100)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "N1", due[0].NotificationID)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 2, stats.ByType[string(models.NotificationDeadlineReminder)].Pending)

	removed, err := repo.Cleanup(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}
