package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/events"
	"github.com/noah-isme/campus-placement-api/pkg/jobs"
	"github.com/noah-isme/campus-placement-api/pkg/mailer"
)

const (
	defaultNotificationBatch = 100
	maxScheduledListing      = 200
	defaultScheduledListing  = 50
	myNotificationsLimit     = 20
	cleanupInterval          = 24 * time.Hour
)

// Default sender identity for scheduled notifications.
const (
	DefaultFromName = "Campus Placement Portal"
	DefaultReplyTo  = "placements@college.edu"
)

type notificationObserver interface {
	ObserveNotification(sent bool)
}

// NotificationServiceConfig tunes the poller.
type NotificationServiceConfig struct {
	Interval  time.Duration
	BatchSize int
	Workers   int
	Retries   int
	Retention time.Duration
	FromName  string
	ReplyTo   string
}

// NotificationService delivers due notifications and serves the
// notification routes.
type NotificationService struct {
	repo      notificationRepository
	scheduler *NotificationScheduler
	sender    mailer.Sender
	publisher events.Publisher
	metrics   notificationObserver
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	tracer    trace.Tracer
	cfg       NotificationServiceConfig
	queue     *jobs.Queue
	now       func() time.Time

	processing sync.Mutex

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	lastRunAt *time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewNotificationService constructs the poller. publisher, metrics and cache
// may be nil.
func NewNotificationService(repo notificationRepository, scheduler *NotificationScheduler, sender mailer.Sender, publisher events.Publisher, metrics notificationObserver, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg NotificationServiceConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultNotificationBatch
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	if cfg.ReplyTo == "" {
		cfg.ReplyTo = DefaultReplyTo
	}
	s := &NotificationService{
		repo:      repo,
		scheduler: scheduler,
		sender:    sender,
		publisher: publisher,
		metrics:   metrics,
		cache:     cache,
		validator: validate,
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/campus-placement-api/internal/service/notification"),
		cfg:       cfg,
		now:       time.Now,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start runs the poller until ctx ends or Stop is called. The first pass
// runs immediately.
func (s *NotificationService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("notification service already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.startedAt = s.now()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.queue.Start(runCtx)
	go s.loop(runCtx)
	s.logger.Info("notification service started", zap.Duration("interval", s.cfg.Interval))
}

// Stop halts the poller and waits for the current pass to finish.
func (s *NotificationService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.queue.Stop()
	s.logger.Info("notification service stopped")
}

func (s *NotificationService) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-cleanup.C:
			if removed, err := s.Cleanup(ctx); err != nil {
				s.logger.Warn("notification cleanup failed", zap.Error(err))
			} else if removed > 0 {
				s.logger.Info("old notifications removed", zap.Int64("count", removed))
			}
		}
	}
}

func (s *NotificationService) runOnce(ctx context.Context) {
	count, err := s.ProcessDue(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("process notifications", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("notifications processed", zap.Int("count", count))
	}
}

// ProcessDue delivers up to limit pending notifications whose time has come.
// A pass that starts while another is running returns immediately.
func (s *NotificationService) ProcessDue(ctx context.Context, limit int) (int, error) {
	if !s.processing.TryLock() {
		s.logger.Debug("notification pass already in progress")
		return 0, nil
	}
	defer s.processing.Unlock()

	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.process_due", trace.WithAttributes(attribute.Int("notifications.limit", limit)))
	defer span.End()

	now := s.now().UTC()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	due, err := s.repo.Due(spanCtx, now, limit)
	if err != nil {
		span.RecordError(err)
		return 0, internalError(err, "failed to load due notifications")
	}
	if len(due) == 0 {
		return 0, nil
	}

	batch := make([]jobs.Job, 0, len(due))
	for i := range due {
		n := due[i]
		batch = append(batch, jobs.Job{ID: n.NotificationID, Type: string(n.Type), Payload: &n})
	}

	if !s.queueRunning() {
		s.queue.Start(spanCtx)
		defer s.queue.Stop()
	}
	results, err := s.queue.Dispatch(spanCtx, batch)
	for _, res := range results {
		n, ok := res.Job.Payload.(*models.ScheduledNotification)
		if !ok {
			continue
		}
		s.record(spanCtx, n, res.Err)
	}
	if err != nil {
		span.RecordError(err)
		return len(results), err
	}
	s.cache.Invalidate(spanCtx, CacheKeyNotificationStats) //nolint:errcheck
	return len(results), nil
}

func (s *NotificationService) queueRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(*models.ScheduledNotification)
	if !ok {
		return errors.New("notification payload missing")
	}
	err := s.sender.Send(ctx, mailer.Message{
		To:       n.RecipientEmail,
		Subject:  n.Subject,
		Body:     n.Message,
		FromName: s.cfg.FromName,
		ReplyTo:  s.cfg.ReplyTo,
	})
	if errors.Is(err, mailer.ErrNotConfigured) {
		s.logger.Warn("mailer not configured, notification skipped", zap.String("notification_id", n.NotificationID))
		return nil
	}
	return err
}

func (s *NotificationService) record(ctx context.Context, n *models.ScheduledNotification, sendErr error) {
	at := s.now().UTC()
	if sendErr == nil {
		n.Status = models.NotificationSent
		n.SentAt = &at
		n.Error = ""
	} else {
		n.Status = models.NotificationFailed
		n.FailedAt = &at
		n.Error = sendErr.Error()
		s.logger.Warn("notification delivery failed", zap.String("notification_id", n.NotificationID), zap.Error(sendErr))
	}
	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Error("update notification status", zap.String("notification_id", n.NotificationID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveNotification(sendErr == nil)
	}
	payload := map[string]interface{}{
		"notificationId": n.NotificationID,
		"type":           n.Type,
		"status":         n.Status,
	}
	if err := s.publisher.Publish(ctx, events.TypeNotificationResult, payload); err != nil {
		s.logger.Warn("publish notification result", zap.Error(err))
	}
}

// Cleanup deletes delivered, failed and cancelled notifications older than
// the retention window.
func (s *NotificationService) Cleanup(ctx context.Context) (int64, error) {
	removed, err := s.repo.Cleanup(ctx, s.now().Add(-s.cfg.Retention))
	if err != nil {
		return 0, internalError(err, "failed to clean up notifications")
	}
	return removed, nil
}

// Stats summarises the queue.
func (s *NotificationService) Stats(ctx context.Context) (models.NotificationStats, error) {
	stats, _, err := Remember(ctx, s.cache, CacheKeyNotificationStats, time.Minute, func() (models.NotificationStats, error) {
		return s.repo.Stats(ctx)
	})
	if err != nil {
		return models.NotificationStats{}, internalError(err, "failed to load notification stats")
	}
	return stats, nil
}

// Status reports the poller state with current stats.
func (s *NotificationService) Status(ctx context.Context) (models.NotificationServiceStatus, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return models.NotificationServiceStatus{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	status := models.NotificationServiceStatus{
		IsRunning:          s.running,
		ProcessingInterval: s.cfg.Interval.Milliseconds(),
		LastRunAt:          s.lastRunAt,
		Stats:              stats,
	}
	if s.running {
		status.Uptime = s.now().Sub(s.startedAt).Milliseconds()
	}
	return status, nil
}

// SendTest delivers an email immediately, bypassing the schedule.
func (s *NotificationService) SendTest(ctx context.Context, user *models.CurrentUser, req dto.TestNotificationRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid test notification payload")
	}
	to := req.Email
	if to == "" && user != nil {
		to = user.Email
	}
	subject := sanitizeText(req.Subject)
	if subject == "" {
		subject = "Test notification - Campus Placement Portal"
	}
	body := sanitizeText(req.Message)
	if body == "" {
		body = "This is a test notification from the Campus Placement Portal."
	}
	err := s.sender.Send(ctx, mailer.Message{To: to, Subject: subject, Body: body, FromName: s.cfg.FromName, ReplyTo: s.cfg.ReplyTo})
	if err != nil && !errors.Is(err, mailer.ErrNotConfigured) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send test notification")
	}
	return nil
}

// ListScheduled returns notifications for the admin console, newest
// scheduled first.
func (s *NotificationService) ListScheduled(ctx context.Context, query dto.ScheduledNotificationQuery) ([]models.ScheduledNotification, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultScheduledListing
	}
	if limit > maxScheduledListing {
		limit = maxScheduledListing
	}
	items, err := s.repo.List(ctx, models.NotificationFilter{Type: query.Type, Status: query.Status, Limit: limit, OrderBy: models.NotificationOrderScheduledDesc})
	if err != nil {
		return nil, internalError(err, "failed to list notifications")
	}
	return items, nil
}

// MyNotifications returns the latest notifications addressed to user.
func (s *NotificationService) MyNotifications(ctx context.Context, user *models.CurrentUser) ([]models.ScheduledNotification, error) {
	items, err := s.repo.List(ctx, models.NotificationFilter{RecipientEmail: user.Email, Limit: myNotificationsLimit, OrderBy: models.NotificationOrderCreatedDesc})
	if err != nil {
		return nil, internalError(err, "failed to list notifications")
	}
	return items, nil
}

// List returns every notification for admins and otherwise those the user
// received or created.
func (s *NotificationService) List(ctx context.Context, user *models.CurrentUser) ([]models.ScheduledNotification, error) {
	filter := models.NotificationFilter{OrderBy: models.NotificationOrderCreatedDesc, Limit: maxScheduledListing}
	if !user.IsAdmin() {
		filter.OwnerEmail = user.Email
		filter.OwnerID = user.ID
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list notifications")
	}
	return items, nil
}

// Create schedules a manual notification from user.
func (s *NotificationService) Create(ctx context.Context, user *models.CurrentUser, req dto.CreateNotificationRequest) (*models.ScheduledNotification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notification payload")
	}
	recipient := strings.TrimSpace(req.RecipientEmail)
	name := strings.TrimSpace(req.RecipientName)
	if recipient == "" {
		recipient = user.Email
		name = user.Name
	}
	n := &models.ScheduledNotification{
		Type:           models.NotificationManual,
		RecipientEmail: recipient,
		RecipientName:  name,
		Subject:        sanitizeText(req.Title),
		Message:        sanitizeText(req.Message),
		CreatedBy:      user.ID,
	}
	if n.Message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is empty after sanitization")
	}
	if req.SendAt != nil {
		n.ScheduledTime = *req.SendAt
	}
	if _, err := s.scheduler.Schedule(ctx, n); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, CacheKeyNotificationStats) //nolint:errcheck
	return n, nil
}

// Cancel cancels a notification on behalf of user.
func (s *NotificationService) Cancel(ctx context.Context, id string, user *models.CurrentUser) (*models.ScheduledNotification, error) {
	n, err := s.scheduler.Cancel(ctx, id, user)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, CacheKeyNotificationStats) //nolint:errcheck
	return n, nil
}
