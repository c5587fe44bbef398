package dto

import (
	"time"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// CreateNotificationRequest schedules a manual notification.
type CreateNotificationRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Message        string     `json:"message" validate:"required"`
	SendAt         *time.Time `json:"sendAt"`
	RecipientEmail string     `json:"recipientEmail" validate:"omitempty,email"`
	RecipientName  string     `json:"recipientName"`
}

// TestNotificationRequest sends an immediate test email.
type TestNotificationRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ScheduledNotificationQuery captures GET /notifications/scheduled filters.
type ScheduledNotificationQuery struct {
	Type   models.NotificationType   `form:"type"`
	Status models.NotificationStatus `form:"status"`
	Limit  int                       `form:"limit"`
}

// ProcessNotificationsResponse reports a manual poller run.
type ProcessNotificationsResponse struct {
	Processed int `json:"processed"`
}
