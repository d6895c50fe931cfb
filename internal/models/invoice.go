package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceIssued    InvoiceStatus = "issued"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice bills against a supply contract.
type Invoice struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	InvoiceNumber string            `gorm:"uniqueIndex;not null" json:"invoice_number"`
	ContractID    uint              `gorm:"not null;index" json:"contract_id"`
	Contract      *SupplierContract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`

	Amount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status InvoiceStatus   `gorm:"not null;default:issued;index" json:"status"`

	IssuedAt time.Time  `json:"issued_at"`
	DueDate  time.Time  `json:"due_date"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
