package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

// CreatedBySystem marks notifications scheduled by workflows.
const CreatedBySystem = "system"

const notificationTimeLayout = "02 Jan 2006 15:04 MST"

type notificationRepository interface {
	Create(ctx context.Context, n *models.ScheduledNotification) error
	FindByID(ctx context.Context, id string) (*models.ScheduledNotification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.ScheduledNotification, error)
	Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotification, error)
	Update(ctx context.Context, n *models.ScheduledNotification) error
	Stats(ctx context.Context) (models.NotificationStats, error)
	Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
}

type reminderOffset struct {
	before time.Duration
	label  string
	tag    string
}

var (
	deadlineReminders = []reminderOffset{
		{7 * 24 * time.Hour, "7 days", ""},
		{3 * 24 * time.Hour, "3 days", ""},
		{24 * time.Hour, "1 day", ""},
		{2 * time.Hour, "2 hours", ""},
	}
	mentorReminderDelays = []time.Duration{24 * time.Hour, 72 * time.Hour, 120 * time.Hour}
	interviewReminders   = []reminderOffset{
		{24 * time.Hour, "24 hours", "24h"},
		{2 * time.Hour, "2 hours", "2h"},
	}
	offerReminders = []reminderOffset{
		{3 * 24 * time.Hour, "3 days", ""},
		{24 * time.Hour, "1 day", ""},
		{6 * time.Hour, "6 hours", ""},
	}
)

// NotificationScheduler persists outbound emails for later delivery.
type NotificationScheduler struct {
	repo   notificationRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationScheduler constructs a NotificationScheduler.
func NewNotificationScheduler(repo notificationRepository, logger *zap.Logger) *NotificationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationScheduler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// NewNotificationID renders NOTIF_{unix ms}_{9 base36 chars}.
func (s *NotificationScheduler) NewNotificationID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return "NOTIF_" + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + string(suffix)
}

// Schedule stores n as pending and returns its id.
func (s *NotificationScheduler) Schedule(ctx context.Context, n *models.ScheduledNotification) (string, error) {
	if strings.TrimSpace(n.RecipientEmail) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "recipient email is required")
	}
	n.NotificationID = s.NewNotificationID()
	n.Status = models.NotificationPending
	n.CreatedAt = s.now().UTC()
	if n.ScheduledTime.IsZero() {
		n.ScheduledTime = n.CreatedAt
	}
	n.ScheduledTime = n.ScheduledTime.UTC()
	if err := s.repo.Create(ctx, n); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule notification")
	}
	return n.NotificationID, nil
}

// ScheduleDeadlineReminders queues a reminder per student at each offset
// before the deadline that is still in the future.
func (s *NotificationScheduler) ScheduleDeadlineReminders(ctx context.Context, internship *models.Internship, students []models.Student) int {
	if internship == nil || internship.ApplicationDeadline == nil {
		return 0
	}
	deadline := *internship.ApplicationDeadline
	now := s.now()
	scheduled := 0
	for _, offset := range deadlineReminders {
		at := deadline.Add(-offset.before)
		if !at.After(now) {
			continue
		}
		for i := range students {
			student := &students[i]
			_, err := s.Schedule(ctx, &models.ScheduledNotification{
				Type:           models.NotificationDeadlineReminder,
				ScheduledTime:  at,
				RecipientEmail: student.Email,
				RecipientName:  student.Name,
				Subject:        fmt.Sprintf("%s left to apply - %s", offset.label, internship.Title),
				Message:        deadlineReminderMessage(student, internship, offset.label),
				Metadata: models.NotificationMetadata{
					"internshipId": internship.ID,
					"studentId":    student.ID,
					"reminderType": offset.label,
				},
				CreatedBy: CreatedBySystem,
			})
			if err != nil {
				s.logger.Warn("schedule deadline reminder", zap.String("internship_id", internship.ID), zap.String("student_id", student.ID), zap.Error(err))
				continue
			}
			scheduled++
		}
	}
	return scheduled
}

// ScheduleMentorApprovalReminders queues three escalating reminders.
func (s *NotificationScheduler) ScheduleMentorApprovalReminders(ctx context.Context, application *models.Application, mentor *models.Mentor, internship *models.Internship, student *models.Student) int {
	if application == nil || mentor == nil || internship == nil || student == nil {
		return 0
	}
	now := s.now()
	scheduled := 0
	for i, delay := range mentorReminderDelays {
		number := i + 1
		_, err := s.Schedule(ctx, &models.ScheduledNotification{
			Type:           models.NotificationMentorApprovalReminder,
			ScheduledTime:  now.Add(delay),
			RecipientEmail: mentor.Email,
			RecipientName:  mentor.Name,
			Subject:        fmt.Sprintf("Pending Approval Required - %s for %s", student.Name, internship.Title),
			Message:        mentorReminderMessage(mentor, student, internship, number),
			Metadata: models.NotificationMetadata{
				"applicationId":  application.ID,
				"mentorId":       mentor.ID,
				"studentId":      student.ID,
				"internshipId":   internship.ID,
				"reminderNumber": number,
			},
			CreatedBy: CreatedBySystem,
		})
		if err != nil {
			s.logger.Warn("schedule mentor reminder", zap.String("application_id", application.ID), zap.Error(err))
			continue
		}
		scheduled++
	}
	return scheduled
}

// ScheduleInterviewReminders queues reminders 24h and 2h before the interview.
func (s *NotificationScheduler) ScheduleInterviewReminders(ctx context.Context, application *models.Application, student *models.Student, internship *models.Internship, details *models.InterviewDetails) int {
	if application == nil || student == nil || internship == nil || details == nil || details.Date.IsZero() {
		return 0
	}
	now := s.now()
	scheduled := 0
	for _, offset := range interviewReminders {
		at := details.Date.Add(-offset.before)
		if !at.After(now) {
			continue
		}
		_, err := s.Schedule(ctx, &models.ScheduledNotification{
			Type:           models.NotificationInterviewReminder,
			ScheduledTime:  at,
			RecipientEmail: student.Email,
			RecipientName:  student.Name,
			Subject:        fmt.Sprintf("Interview Reminder - %s at %s", internship.Title, internship.Company),
			Message:        interviewReminderMessage(student, internship, details, offset.label),
			Metadata: models.NotificationMetadata{
				"applicationId": application.ID,
				"studentId":     student.ID,
				"internshipId":  internship.ID,
				"interviewDate": details.Date.UTC().Format(time.RFC3339),
				"reminderType":  offset.tag,
			},
			CreatedBy: CreatedBySystem,
		})
		if err != nil {
			s.logger.Warn("schedule interview reminder", zap.String("application_id", application.ID), zap.Error(err))
			continue
		}
		scheduled++
	}
	return scheduled
}

// ScheduleOfferExpiryReminders queues reminders 3d, 1d and 6h before the
// offer expires.
func (s *NotificationScheduler) ScheduleOfferExpiryReminders(ctx context.Context, application *models.Application, student *models.Student, internship *models.Internship, offer *models.OfferDetails) int {
	if application == nil || student == nil || internship == nil || offer == nil || offer.OfferExpiry == nil {
		return 0
	}
	now := s.now()
	scheduled := 0
	for _, offset := range offerReminders {
		at := offer.OfferExpiry.Add(-offset.before)
		if !at.After(now) {
			continue
		}
		_, err := s.Schedule(ctx, &models.ScheduledNotification{
			Type:           models.NotificationOfferExpiryReminder,
			ScheduledTime:  at,
			RecipientEmail: student.Email,
			RecipientName:  student.Name,
			Subject:        fmt.Sprintf("Offer Expires in %s - %s", offset.label, internship.Title),
			Message:        offerExpiryMessage(student, internship, offer, offset.label),
			Metadata: models.NotificationMetadata{
				"applicationId": application.ID,
				"studentId":     student.ID,
				"internshipId":  internship.ID,
				"reminderType":  offset.label,
			},
			CreatedBy: CreatedBySystem,
		})
		if err != nil {
			s.logger.Warn("schedule offer reminder", zap.String("application_id", application.ID), zap.Error(err))
			continue
		}
		scheduled++
	}
	return scheduled
}

// NotifyApplicationStatus queues an immediate status email to the student.
func (s *NotificationScheduler) NotifyApplicationStatus(ctx context.Context, application *models.Application, student *models.Student, internship *models.Internship) {
	if student == nil || student.Email == "" || application == nil {
		s.logger.Warn("student email missing, status notification skipped")
		return
	}
	title := "Internship"
	if internship != nil && internship.Title != "" {
		title = internship.Title
	}
	_, err := s.Schedule(ctx, &models.ScheduledNotification{
		Type:           models.NotificationApplicationStatus,
		RecipientEmail: student.Email,
		RecipientName:  student.Name,
		Subject:        fmt.Sprintf("Application %s - %s", strings.ReplaceAll(string(application.Status), "_", " "), title),
		Message:        applicationStatusMessage(application, student, internship),
		Metadata: models.NotificationMetadata{
			"applicationId": application.ID,
			"studentId":     student.ID,
			"status":        string(application.Status),
		},
		CreatedBy: CreatedBySystem,
	})
	if err != nil {
		s.logger.Warn("schedule status notification", zap.String("application_id", application.ID), zap.Error(err))
	}
}

// Cancel marks a pending notification cancelled by userID.
func (s *NotificationScheduler) Cancel(ctx context.Context, id string, user *models.CurrentUser) (*models.ScheduledNotification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Notification not found", "failed to load notification")
	}
	if !user.IsAdmin() && !strings.EqualFold(n.RecipientEmail, user.Email) && n.CreatedBy != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	now := s.now().UTC()
	n.Status = models.NotificationCancelled
	n.CancelledAt = &now
	n.CancelledBy = user.ID
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel notification")
	}
	return n, nil
}

func deadlineReminderMessage(student *models.Student, internship *models.Internship, timeLeft string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", student.Name)
	fmt.Fprintf(&b, "This is a friendly reminder that the application deadline for %q at %s is approaching.\n\n", internship.Title, internship.Company)
	fmt.Fprintf(&b, "Time Remaining: %s\n", timeLeft)
	fmt.Fprintf(&b, "Deadline: %s\n\n", internship.ApplicationDeadline.Format(notificationTimeLayout))
	b.WriteString("Internship Details:\n")
	fmt.Fprintf(&b, "- Position: %s\n- Company: %s\n- Location: %s\n- Stipend: %s\n- Duration: %s\n\n",
		internship.Title, internship.Company, internship.Location, internship.Stipend, internship.Duration)
	b.WriteString("Don't miss this opportunity! Apply now through the Campus Placement Portal.\n\n")
	b.WriteString(signature)
	return b.String()
}

func mentorReminderMessage(mentor *models.Mentor, student *models.Student, internship *models.Internship, number int) string {
	urgency := "gentle"
	switch number {
	case 2:
		urgency = "important"
	case 3:
		urgency = "urgent"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", mentor.Name)
	fmt.Fprintf(&b, "This is a %s reminder that the following application requires your approval:\n\n", urgency)
	fmt.Fprintf(&b, "Student: %s (%s)\nDepartment: %s\nCGPA: %.2f\n\n", student.Name, student.Email, student.Department, student.CGPA)
	fmt.Fprintf(&b, "Internship: %s\nCompany: %s\n\n", internship.Title, internship.Company)
	b.WriteString("The student is waiting for your decision. Please log in to the mentor portal to approve or reject this application.\n\n")
	if number > 2 {
		b.WriteString("This application has been pending for over 5 days. Please take action soon.\n\n")
	}
	b.WriteString("Thank you,\nCampus Placement Cell")
	return b.String()
}

func interviewReminderMessage(student *models.Student, internship *models.Internship, details *models.InterviewDetails, until string) string {
	mode := details.Mode
	if mode == "" {
		mode = "Not specified"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nYour interview is scheduled in %s!\n\n", student.Name, until)
	b.WriteString("Interview Details:\n")
	fmt.Fprintf(&b, "- Date & Time: %s\n- Position: %s\n- Company: %s\n- Mode: %s\n",
		details.Date.Format(notificationTimeLayout), internship.Title, internship.Company, mode)
	if details.Location != "" {
		fmt.Fprintf(&b, "- Location: %s\n", details.Location)
	}
	if details.MeetingLink != "" {
		fmt.Fprintf(&b, "- Meeting Link: %s\n", details.MeetingLink)
	}
	if details.Interviewer != "" {
		fmt.Fprintf(&b, "- Interviewer: %s\n", details.Interviewer)
	}
	b.WriteString("\nReview your application, research the company and arrive 5-10 minutes early.\n\nGood luck with your interview!\n\n")
	b.WriteString(signature)
	return b.String()
}

func offerExpiryMessage(student *models.Student, internship *models.Internship, offer *models.OfferDetails, timeLeft string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nYour internship offer is expiring soon!\n\n", student.Name)
	fmt.Fprintf(&b, "Time Remaining: %s\nOffer Expires: %s\n\n", timeLeft, offer.OfferExpiry.Format(notificationTimeLayout))
	b.WriteString("Offer Details:\n")
	fmt.Fprintf(&b, "- Position: %s\n- Company: %s\n- Stipend: %s\n- Duration: %s\n", internship.Title, internship.Company, offer.Stipend, offer.Duration)
	if offer.StartDate != nil {
		fmt.Fprintf(&b, "- Start Date: %s\n", offer.StartDate.Format("Mon Jan 02 2006"))
	}
	b.WriteString("\nPlease log in to your student portal to accept or decline this offer before it expires.\n\n")
	b.WriteString(signature)
	return b.String()
}

func applicationStatusMessage(application *models.Application, student *models.Student, internship *models.Internship) string {
	var b strings.Builder
	name := student.Name
	if name == "" {
		name = "Student"
	}
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	if internship != nil {
		fmt.Fprintf(&b, "Your application status for %q at %s has been updated to: %s.\n", internship.Title, internship.Company, application.Status)
	} else {
		fmt.Fprintf(&b, "Your application status has been updated to: %s.\n", application.Status)
	}
	if application.Status == models.ApplicationInterviewScheduled && application.InterviewScheduled != nil {
		d := application.InterviewScheduled
		b.WriteString("\nInterview Details:\n")
		fmt.Fprintf(&b, "- Date: %s\n", d.Date.Format(notificationTimeLayout))
		if d.Mode != "" {
			fmt.Fprintf(&b, "- Mode: %s\n", d.Mode)
		}
		if d.Location != "" {
			fmt.Fprintf(&b, "- Location: %s\n", d.Location)
		}
		if d.MeetingLink != "" {
			fmt.Fprintf(&b, "- Meeting Link: %s\n", d.MeetingLink)
		}
	}
	if application.Status == models.ApplicationOffered && application.OfferDetails != nil {
		o := application.OfferDetails
		b.WriteString("\nOffer Details:\n")
		if o.Stipend != "" {
			fmt.Fprintf(&b, "- Stipend: %s\n", o.Stipend)
		}
		if o.Duration != "" {
			fmt.Fprintf(&b, "- Duration: %s\n", o.Duration)
		}
		if o.StartDate != nil {
			fmt.Fprintf(&b, "- Start Date: %s\n", o.StartDate.Format("Mon Jan 02 2006"))
		}
		if o.OfferExpiry != nil {
			fmt.Fprintf(&b, "- Offer Expiry: %s\n", o.OfferExpiry.Format(notificationTimeLayout))
		}
	}
	if application.Feedback != "" {
		fmt.Fprintf(&b, "\nFeedback:\n%s\n", application.Feedback)
	}
	b.WriteString("\nRegards,\nCampus Placement Cell")
	return b.String()
}

const signature = "Best regards,\nCampus Placement Cell"
