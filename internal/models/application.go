package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ApplicationStatus is the lifecycle state of a supplier application.
type ApplicationStatus string

const (
	StatusPendingReview ApplicationStatus = "pending_review"
	StatusUnderReview   ApplicationStatus = "under_review"
	StatusApproved      ApplicationStatus = "approved"
	StatusRejected      ApplicationStatus = "rejected"
)

// SupplierApplication is the aggregate root of the onboarding workflow.
// Applications are never hard-deleted.
type SupplierApplication struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	BusinessName       string `gorm:"not null" json:"business_name"`
	RegistrationNumber string `gorm:"not null" json:"registration_number"`
	BusinessType       string `json:"business_type"`
	RegionID           uint   `gorm:"index" json:"region_id"`
	Region             *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	YearsInOperation   int    `json:"years_in_operation"`
	ContactPerson      string `gorm:"not null" json:"contact_person"`
	Email              string `gorm:"not null;index" json:"email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`

	Commodities      []Commodity `gorm:"many2many:application_commodities" json:"commodities,omitempty"`
	OtherCommodities string      `json:"other_commodities"`
	Schools          []School    `gorm:"many2many:application_schools" json:"schools,omitempty"`

	Status            ApplicationStatus `gorm:"not null;default:pending_review;index" json:"status"`
	TrackingCode      string            `gorm:"uniqueIndex;not null" json:"tracking_code"`
	CompletionToken   string            `gorm:"uniqueIndex;not null" json:"-"`
	DeclarationAgreed bool              `gorm:"not null" json:"declaration_agreed"`

	// MissingDocuments is a JSON-encoded []string of requirement codes. Use
	// MissingList/SetMissingList instead of touching it directly.
	MissingDocuments           string     `gorm:"type:text" json:"-"`
	DocumentCompletionDeadline *time.Time `json:"document_completion_deadline,omitempty"`

	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ReviewedByUserID *uint      `json:"reviewed_by_user_id,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`

	// UserID links the supplier account created on approval.
	UserID *uint `gorm:"index" json:"user_id,omitempty"`

	TeamMembers  []TeamMember  `gorm:"foreignKey:ApplicationID" json:"team_members,omitempty"`
	NextOfKin    []NextOfKin   `gorm:"foreignKey:ApplicationID" json:"next_of_kin,omitempty"`
	BankAccounts []BankAccount `gorm:"foreignKey:ApplicationID" json:"bank_accounts,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MissingList decodes the missing requirement codes. An empty column decodes
// to an empty slice, never nil, so callers can compare lengths directly.
func (a *SupplierApplication) MissingList() []string {
	if a.MissingDocuments == "" {
		return []string{}
	}
	var codes []string
	if err := json.Unmarshal([]byte(a.MissingDocuments), &codes); err != nil {
		return []string{}
	}
	if codes == nil {
		codes = []string{}
	}
	return codes
}

// SetMissingList encodes the missing requirement codes.
func (a *SupplierApplication) SetMissingList(codes []string) {
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return
	}
	a.MissingDocuments = string(data)
}

// IsCompletionTokenValid reports whether the unauthenticated upload token may
// still be used: true iff the completion deadline is unset or in the future.
func (a *SupplierApplication) IsCompletionTokenValid() bool {
	return a.DocumentCompletionDeadline == nil || a.DocumentCompletionDeadline.After(time.Now())
}

// IsReviewable reports whether approve/reject actions are allowed.
func (a *SupplierApplication) IsReviewable() bool {
	return a.Status == StatusPendingReview || a.Status == StatusUnderReview
}

// TeamMember is a key person in the applying business.
type TeamMember struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	FullName      string    `gorm:"not null" json:"full_name"`
	Position      string    `json:"position"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NextOfKin is an emergency contact for the applying business.
type NextOfKin struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	FullName      string    `gorm:"not null" json:"full_name"`
	Relationship  string    `json:"relationship"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BankAccount holds settlement details for the applying business.
type BankAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	BankName      string    `gorm:"not null" json:"bank_name"`
	Branch        string    `json:"branch"`
	AccountName   string    `gorm:"not null" json:"account_name"`
	AccountNumber string    `gorm:"not null" json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
