package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/mailer"
)

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items map[string]*models.ScheduledNotification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: map[string]*models.ScheduledNotification{}}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *models.ScheduledNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	f.items[n.NotificationID] = &cp
	return nil
}

func (f *fakeNotificationRepo) FindByID(ctx context.Context, id string) (*models.ScheduledNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.ScheduledNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScheduledNotification
	for _, n := range f.items {
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.RecipientEmail != "" && !strings.EqualFold(n.RecipientEmail, filter.RecipientEmail) {
			continue
		}
		if filter.OwnerEmail != "" && !strings.EqualFold(n.RecipientEmail, filter.OwnerEmail) && n.CreatedBy != filter.OwnerID {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (f *fakeNotificationRepo) Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScheduledNotification
	for _, n := range f.items {
		if n.Status == models.NotificationPending && !n.ScheduledTime.After(now) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) Update(ctx context.Context, n *models.ScheduledNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	f.items[n.NotificationID] = &cp
	return nil
}

func (f *fakeNotificationRepo) Stats(ctx context.Context) (models.NotificationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := models.NotificationStats{ByType: map[string]models.NotificationTypeStats{}}
	for _, n := range f.items {
		stats.Total++
		if n.Status == models.NotificationPending {
			stats.Pending++
		}
		if n.Status == models.NotificationSent {
			stats.Sent++
		}
	}
	return stats, nil
}

func (f *fakeNotificationRepo) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, n := range f.items {
		if n.Status != models.NotificationPending && n.CreatedAt.Before(cutoff) {
			delete(f.items, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeNotificationRepo) byType(t models.NotificationType) []models.ScheduledNotification {
	items, _ := f.List(context.Background(), models.NotificationFilter{Type: t})
	return items
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failFor  string
	err      error
	entered  chan struct{}
	blocking chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.entered != nil {
		close(f.entered)
	}
	if f.blocking != nil {
		<-f.blocking
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failFor != "" && msg.To == f.failFor {
		return errors.New("smtp rejected")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func newTestNotificationService(repo *fakeNotificationRepo, sender mailer.Sender, publisher *recordingPublisher) *NotificationService {
	scheduler := NewNotificationScheduler(repo, zap.NewNop())
	return NewNotificationService(repo, scheduler, sender, publisher, NewMetricsService(), nil, nil, zap.NewNop(), NotificationServiceConfig{Workers: 2})
}

func TestNotificationIDFormat(t *testing.T) {
	scheduler := NewNotificationScheduler(newFakeNotificationRepo(), nil)
	assert.Regexp(t, regexp.MustCompile(`^NOTIF_\d{13}_[0-9a-z]{9}$`), scheduler.NewNotificationID())
}

func TestScheduleDeadlineRemindersSkipsPastOffsets(t *testing.T) {
	repo := newFakeNotificationRepo()
	scheduler := NewNotificationScheduler(repo, nil)
	deadline := time.Now().Add(2 * 24 * time.Hour)
	internship := &models.Internship{ID: "INT001", Title: "Backend Intern", Company: "Acme", ApplicationDeadline: &deadline}
	students := []models.Student{{ID: "STU001", Email: "a@college.edu"}, {ID: "STU002", Email: "b@college.edu"}}

	count := scheduler.ScheduleDeadlineReminders(context.Background(), internship, students)
	assert.Equal(t, 4, count)
	items := repo.byType(models.NotificationDeadlineReminder)
	require.Len(t, items, 4)
	for _, n := range items {
		assert.True(t, n.ScheduledTime.After(time.Now()))
		assert.Equal(t, models.NotificationPending, n.Status)
		assert.Equal(t, CreatedBySystem, n.CreatedBy)
	}
	assert.Contains(t, []string{"1 day", "2 hours"}, items[0].Metadata.String("reminderType"))
}

func TestScheduleMentorAndOfferReminders(t *testing.T) {
	repo := newFakeNotificationRepo()
	scheduler := NewNotificationScheduler(repo, nil)
	app := &models.Application{ID: "APP001"}
	student := &models.Student{ID: "STU001", Name: "Asha", Email: "asha@college.edu"}
	internship := &models.Internship{ID: "INT001", Title: "Data Intern", Company: "Acme"}
	mentor := &models.Mentor{ID: "MEN001", Name: "Dr. Rao", Email: "rao@college.edu"}

	assert.Equal(t, 3, scheduler.ScheduleMentorApprovalReminders(context.Background(), app, mentor, internship, student))
	reminders := repo.byType(models.NotificationMentorApprovalReminder)
	require.Len(t, reminders, 3)
	assert.Contains(t, reminders[2].Message, "urgent")

	expiry := time.Now().Add(2 * 24 * time.Hour)
	assert.Equal(t, 2, scheduler.ScheduleOfferExpiryReminders(context.Background(), app, student, internship, &models.OfferDetails{OfferExpiry: &expiry}))

	interview := &models.InterviewDetails{Date: time.Now().Add(3 * time.Hour), Mode: "Online"}
	assert.Equal(t, 1, scheduler.ScheduleInterviewReminders(context.Background(), app, student, internship, interview))
	assert.Equal(t, "2h", repo.byType(models.NotificationInterviewReminder)[0].Metadata.String("reminderType"))
}

func TestNotificationProcessDue(t *testing.T) {
	repo := newFakeNotificationRepo()
	sender := &fakeSender{failFor: "bounce@college.edu"}
	publisher := &recordingPublisher{}
	svc := newTestNotificationService(repo, sender, publisher)

	past := time.Now().Add(-time.Minute)
	for _, to := range []string{"ok@college.edu", "bounce@college.edu"} {
		_, err := svc.scheduler.Schedule(context.Background(), &models.ScheduledNotification{
			Type: models.NotificationManual, RecipientEmail: to, Subject: "Hi", Message: "Body", ScheduledTime: past,
		})
		require.NoError(t, err)
	}
	_, err := svc.scheduler.Schedule(context.Background(), &models.ScheduledNotification{
		Type: models.NotificationManual, RecipientEmail: "later@college.edu", Subject: "Later", Message: "Body", ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	processed, err := svc.ProcessDue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	statuses := map[string]models.ScheduledNotification{}
	for _, n := range repo.items {
		statuses[n.RecipientEmail] = *n
	}
	assert.Equal(t, models.NotificationSent, statuses["ok@college.edu"].Status)
	assert.NotNil(t, statuses["ok@college.edu"].SentAt)
	assert.Equal(t, models.NotificationFailed, statuses["bounce@college.edu"].Status)
	assert.Equal(t, "smtp rejected", statuses["bounce@college.edu"].Error)
	assert.Equal(t, models.NotificationPending, statuses["later@college.edu"].Status)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, DefaultFromName, sender.sent[0].FromName)
	assert.Len(t, publisher.events, 2)
}

func TestNotificationProcessDueTreatsUnconfiguredMailerAsSkipped(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestNotificationService(repo, &fakeSender{err: mailer.ErrNotConfigured}, &recordingPublisher{})
	id, err := svc.scheduler.Schedule(context.Background(), &models.ScheduledNotification{RecipientEmail: "a@college.edu", Message: "x"})
	require.NoError(t, err)

	_, err = svc.ProcessDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSent, repo.items[id].Status)
}

func TestNotificationProcessDueSingleFlight(t *testing.T) {
	repo := newFakeNotificationRepo()
	sender := &fakeSender{entered: make(chan struct{}), blocking: make(chan struct{})}
	svc := newTestNotificationService(repo, sender, &recordingPublisher{})
	_, err := svc.scheduler.Schedule(context.Background(), &models.ScheduledNotification{RecipientEmail: "a@college.edu", Message: "x"})
	require.NoError(t, err)

	done := make(chan int)
	go func() {
		n, _ := svc.ProcessDue(context.Background(), 10)
		done <- n
	}()
	select {
	case <-sender.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first pass never reached the mailer")
	}

	n, err := svc.ProcessDue(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	close(sender.blocking)
	assert.Equal(t, 1, <-done)
}

func TestNotificationCreateAndCancel(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestNotificationService(repo, &fakeSender{}, &recordingPublisher{})
	student := &models.CurrentUser{ID: "STU001", Email: "asha@college.edu", Role: models.RoleStudent}
	other := &models.CurrentUser{ID: "STU002", Email: "ravi@college.edu", Role: models.RoleStudent}

	n, err := svc.Create(context.Background(), student, dto.CreateNotificationRequest{Title: "Reminder", Message: "<b>Submit</b> the report"})
	require.NoError(t, err)
	assert.Equal(t, "Submit the report", n.Message)
	assert.Equal(t, student.Email, n.RecipientEmail)
	assert.Equal(t, models.NotificationManual, n.Type)

	_, err = svc.Cancel(context.Background(), n.NotificationID, other)
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	cancelled, err := svc.Cancel(context.Background(), n.NotificationID, student)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationCancelled, cancelled.Status)
	assert.Equal(t, "STU001", cancelled.CancelledBy)

	_, err = svc.Cancel(context.Background(), "NOTIF_missing", student)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestNotificationCleanup(t *testing.T) {
	repo := newFakeNotificationRepo()
	old := time.Now().Add(-60 * 24 * time.Hour)
	repo.items["a"] = &models.ScheduledNotification{NotificationID: "a", Status: models.NotificationSent, CreatedAt: old}
	repo.items["b"] = &models.ScheduledNotification{NotificationID: "b", Status: models.NotificationPending, CreatedAt: old}
	svc := newTestNotificationService(repo, &fakeSender{}, &recordingPublisher{})

	removed, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Contains(t, repo.items, "b")
}
