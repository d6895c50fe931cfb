package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus is the lifecycle state of a supply contract.
type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractCompleted  ContractStatus = "completed"
	ContractTerminated ContractStatus = "terminated"
)

// SupplierContract binds an approved supplier to the supply of a commodity.
// Monetary fields use fixed-point decimals; float drift is not acceptable in
// contract values.
type SupplierContract struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	ContractNumber string               `gorm:"uniqueIndex;not null" json:"contract_number"`
	ApplicationID  uint                 `gorm:"not null;index" json:"application_id"`
	Application    *SupplierApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	CommodityID    uint                 `gorm:"not null" json:"commodity_id"`
	Commodity      *Commodity           `gorm:"foreignKey:CommodityID" json:"commodity,omitempty"`

	Quantity   decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalValue decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_value"`

	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Status    ContractStatus `gorm:"not null;default:draft;index" json:"status"`

	Documents []ContractDocument `gorm:"foreignKey:ContractID" json:"documents,omitempty"`
	Signings  []ContractSigning  `gorm:"foreignKey:ContractID" json:"signings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContractDocument is a file attached to a contract.
type ContractDocument struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContractID uint      `gorm:"not null;index" json:"contract_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FilePath   string    `gorm:"not null" json:"-"`
	FileSize   int64     `json:"file_size"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ContractSigning records one party signing a contract.
type ContractSigning struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContractID uint      `gorm:"not null;index" json:"contract_id"`
	SignedBy   string    `gorm:"not null" json:"signed_by"`
	SignerRole string    `json:"signer_role"`
	SignedAt   time.Time `json:"signed_at"`
	CreatedAt  time.Time `json:"created_at"`
}
