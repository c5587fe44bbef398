package models

import (
	"database/sql/driver"
	"time"
)

// NotificationType classifies scheduled notifications.
type NotificationType string

const (
	NotificationDeadlineReminder       NotificationType = "deadline_reminder"
	NotificationMentorApprovalReminder NotificationType = "mentor_approval_reminder"
	NotificationInterviewReminder      NotificationType = "interview_reminder"
	NotificationOfferExpiryReminder    NotificationType = "offer_expiry_reminder"
	NotificationApplicationStatus      NotificationType = "application_status"
	NotificationIPPEvaluationRequest   NotificationType = "ipp_evaluation_request"
	NotificationIPPStatus              NotificationType = "ipp_status"
	NotificationManual                 NotificationType = "manual"
)

// NotificationStatus is the delivery state of a scheduled notification.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationCancelled NotificationStatus = "cancelled"
)

// NotificationMetadata carries free-form context persisted as JSONB.
type NotificationMetadata map[string]interface{}

// Value marshals metadata to JSON for persistence.
func (m NotificationMetadata) Value() (driver.Value, error) {
	if m == nil {
		m = NotificationMetadata{}
	}
	return marshalJSONB("notification metadata", map[string]interface{}(m))
}

// Scan unmarshals JSON payloads into the metadata map.
func (m *NotificationMetadata) Scan(value interface{}) error {
	return scanJSONB("notification metadata", value, (*map[string]interface{})(m))
}

// String returns a metadata value rendered as a string, or "".
func (m NotificationMetadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// ScheduledNotification is an outbound email queued for a send time.
type ScheduledNotification struct {
	NotificationID string               `db:"notification_id" json:"notificationId"`
	Type           NotificationType     `db:"type" json:"type"`
	ScheduledTime  time.Time            `db:"scheduled_time" json:"scheduledTime"`
	RecipientEmail string               `db:"recipient_email" json:"recipientEmail"`
	RecipientName  string               `db:"recipient_name" json:"recipientName,omitempty"`
	Subject        string               `db:"subject" json:"subject"`
	Message        string               `db:"message" json:"message"`
	Metadata       NotificationMetadata `db:"metadata" json:"metadata,omitempty"`
	CreatedBy      string               `db:"created_by" json:"createdBy,omitempty"`
	Status         NotificationStatus   `db:"status" json:"status"`
	SentAt         *time.Time           `db:"sent_at" json:"sentAt,omitempty"`
	FailedAt       *time.Time           `db:"failed_at" json:"failedAt,omitempty"`
	CancelledAt    *time.Time           `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancelledBy    string               `db:"cancelled_by" json:"cancelledBy,omitempty"`
	Error          string               `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"createdAt"`
}

// Listing orders accepted by NotificationFilter.OrderBy. The default is
// scheduled time ascending.
const (
	NotificationOrderCreatedDesc   = "created_at"
	NotificationOrderScheduledDesc = "scheduled_time_desc"
)

// NotificationFilter narrows scheduled notification listings.
type NotificationFilter struct {
	Type           NotificationType
	Status         NotificationStatus
	RecipientEmail string
	// Owner matches the recipient email or the creator id.
	OwnerEmail string
	OwnerID    string
	Limit      int
	OrderBy    string
}

// NotificationTypeStats counts notifications of one type per status.
type NotificationTypeStats struct {
	Pending   int `json:"pending"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// NotificationStats summarises the notification queue.
type NotificationStats struct {
	Total     int                              `json:"total"`
	Pending   int                              `json:"pending"`
	Sent      int                              `json:"sent"`
	Failed    int                              `json:"failed"`
	Cancelled int                              `json:"cancelled"`
	ByType    map[string]NotificationTypeStats `json:"byType"`
}

// NotificationServiceStatus reports the poller state.
type NotificationServiceStatus struct {
	IsRunning          bool              `json:"isRunning"`
	ProcessingInterval int64             `json:"processingInterval"`
	Uptime             int64             `json:"uptime"`
	LastRunAt          *time.Time        `json:"lastRunAt,omitempty"`
	Stats              NotificationStats `json:"stats"`
}
