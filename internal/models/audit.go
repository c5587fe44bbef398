package models

import (
	"database/sql/driver"
	"time"
)

// Admin actions recorded in the audit trail.
const (
	AuditActionCreateInternship  = "CREATE_INTERNSHIP"
	AuditActionApproveInternship = "APPROVE_INTERNSHIP"
	AuditActionRejectInternship  = "REJECT_INTERNSHIP"
	AuditActionUpdateInternship  = "UPDATE_INTERNSHIP"
	AuditActionDeleteInternship  = "DELETE_INTERNSHIP"
	AuditActionPublishIPP        = "PUBLISH_IPP"
	AuditActionProcessQueue      = "PROCESS_NOTIFICATIONS"
	AuditActionCancelNotice      = "CANCEL_NOTIFICATION"
)

// AuditDetails is the free-form payload attached to an audit entry.
type AuditDetails map[string]interface{}

// Value marshals details to JSON for persistence.
func (d AuditDetails) Value() (driver.Value, error) {
	if d == nil {
		d = AuditDetails{}
	}
	return marshalJSONB("audit details", map[string]interface{}(d))
}

// Scan unmarshals JSON payloads into the details map.
func (d *AuditDetails) Scan(value interface{}) error {
	return scanJSONB("audit details", value, (*map[string]interface{})(d))
}

// AuditLog represents an admin audit trail record.
type AuditLog struct {
	ID        string       `db:"id" json:"id"`
	AdminID   string       `db:"admin_id" json:"adminId"`
	Action    string       `db:"action" json:"action"`
	Details   AuditDetails `db:"details" json:"details"`
	Timestamp time.Time    `db:"timestamp" json:"timestamp"`
}
