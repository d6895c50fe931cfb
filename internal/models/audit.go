package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded against applications.
const (
	AuditActionSubmitted          = "submitted"
	AuditActionReviewStarted      = "review_started"
	AuditActionApproved           = "approved"
	AuditActionRejected           = "rejected"
	AuditActionDocumentsRequested = "documents_requested"
	AuditActionDocumentVerified   = "document_verified"
)

// AuditLog records one application transition: who did what, the old and new
// status, and free-form metadata.
type AuditLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	ActorUserID   *uint     `json:"actor_user_id,omitempty"`
	Action        string    `gorm:"not null;index" json:"action"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	Metadata      string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SetMetadata JSON-encodes free-form context onto the log row. Encoding
// failures leave metadata empty rather than failing the transition.
func (l *AuditLog) SetMetadata(data map[string]interface{}) {
	if len(data) == 0 {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	l.Metadata = string(raw)
}
