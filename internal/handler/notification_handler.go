package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

const processBatch = 100

type notificationService interface {
	ProcessDue(ctx context.Context, limit int) (int, error)
	Stats(ctx context.Context) (models.NotificationStats, error)
	Status(ctx context.Context) (models.NotificationServiceStatus, error)
	SendTest(ctx context.Context, user *models.CurrentUser, req dto.TestNotificationRequest) error
	ListScheduled(ctx context.Context, query dto.ScheduledNotificationQuery) ([]models.ScheduledNotification, error)
	MyNotifications(ctx context.Context, user *models.CurrentUser) ([]models.ScheduledNotification, error)
	List(ctx context.Context, user *models.CurrentUser) ([]models.ScheduledNotification, error)
	Create(ctx context.Context, user *models.CurrentUser, req dto.CreateNotificationRequest) (*models.ScheduledNotification, error)
	Cancel(ctx context.Context, id string, user *models.CurrentUser) (*models.ScheduledNotification, error)
}

// NotificationHandler exposes scheduled notification endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Status godoc
// @Summary Poller status
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/status [get]
func (h *NotificationHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Stats godoc
// @Summary Notification statistics
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/stats [get]
func (h *NotificationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// SendTest godoc
// @Summary Send a test email
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TestNotificationRequest false "Recipient"
// @Success 200 {object} response.Envelope
// @Router /notifications/test [post]
func (h *NotificationHandler) SendTest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.TestNotificationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid test payload") {
		return
	}
	if err := h.service.SendTest(c.Request.Context(), user, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Test notification sent"}, nil)
}

// Scheduled godoc
// @Summary List scheduled notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param type query string false "Type"
// @Param status query string false "Status"
// @Param limit query int false "At most 200"
// @Success 200 {object} response.Envelope
// @Router /notifications/scheduled [get]
func (h *NotificationHandler) Scheduled(c *gin.Context) {
	var query dto.ScheduledNotificationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	items, err := h.service.ListScheduled(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Process godoc
// @Summary Process due notifications now
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/process [post]
func (h *NotificationHandler) Process(c *gin.Context) {
	processed, err := h.service.ProcessDue(c.Request.Context(), processBatch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ProcessNotificationsResponse{Processed: processed}, nil)
}

// Mine godoc
// @Summary Notifications addressed to the caller
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/my-notifications [get]
func (h *NotificationHandler) Mine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.MyNotifications(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// List godoc
// @Summary List notifications
// @Description Admins see every notification; others see their own and those they created
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Schedule a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateNotificationRequest true "Notification"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateNotificationRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Cancel godoc
// @Summary Cancel a pending notification
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notifications/{id}/cancel [post]
func (h *NotificationHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	item, err := h.service.Cancel(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
