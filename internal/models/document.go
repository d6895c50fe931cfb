package models

import "time"

// Well-known requirement codes.
const (
	RequirementFDACertificate = "FDA_CERTIFICATE"
	RequirementVATCertificate = "VAT_CERTIFICATE"
)

// DocumentRequirement is a named, codified category of document an
// application may need to supply. Upload constraints live on the row so
// tightening them is a data change.
type DocumentRequirement struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Code              string    `gorm:"uniqueIndex;not null" json:"code"`
	Name              string    `gorm:"not null" json:"name"`
	Description       string    `json:"description"`
	IsRequired        bool      `gorm:"default:true" json:"is_required"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	AllowedExtensions string    `json:"allowed_extensions"`
	MaxFileSizeMB     int       `json:"max_file_size_mb"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DocumentUpload holds file metadata for one (application, requirement)
// pair. The unique index enforces the one-upload-per-requirement rule;
// re-uploads replace the row.
type DocumentUpload struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	ApplicationID uint                 `gorm:"not null;uniqueIndex:idx_app_requirement" json:"application_id"`
	RequirementID uint                 `gorm:"not null;uniqueIndex:idx_app_requirement" json:"requirement_id"`
	Requirement   *DocumentRequirement `gorm:"foreignKey:RequirementID" json:"requirement,omitempty"`

	FileName    string `gorm:"not null" json:"file_name"`
	FilePath    string `gorm:"not null" json:"-"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`

	Verified         bool       `gorm:"default:false" json:"verified"`
	VerifiedByUserID *uint      `json:"verified_by_user_id,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutstandingDocumentRequest is a staff-issued, trackable ask for specific
// missing documents. The requirement set is snapshotted at creation and the
// request resolves once every linked requirement has a verified upload.
type OutstandingDocumentRequest struct {
	ID              uint                  `gorm:"primaryKey" json:"id"`
	ApplicationID   uint                  `gorm:"not null;index" json:"application_id"`
	Message         string                `json:"message"`
	Requirements    []DocumentRequirement `gorm:"many2many:outstanding_request_requirements" json:"requirements,omitempty"`
	IsResolved      bool                  `gorm:"default:false" json:"is_resolved"`
	ResolvedAt      *time.Time            `json:"resolved_at,omitempty"`
	CreatedByUserID uint                  `json:"created_by_user_id"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}
