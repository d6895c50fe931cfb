package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryStatus is the lifecycle state of a scheduled delivery.
type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryConfirmed DeliveryStatus = "confirmed"
)

// DeliveryTracking is one scheduled delivery against an active contract.
type DeliveryTracking struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	DeliveryNumber string            `gorm:"uniqueIndex;not null" json:"delivery_number"`
	ContractID     uint              `gorm:"not null;index" json:"contract_id"`
	Contract       *SupplierContract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	SchoolID       uint              `gorm:"not null" json:"school_id"`
	School         *School           `gorm:"foreignKey:SchoolID" json:"school,omitempty"`

	Quantity decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	Status   DeliveryStatus  `gorm:"not null;default:scheduled;index" json:"status"`

	ScheduledFor time.Time  `json:"scheduled_for"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreReceiptVoucher is issued exactly once per confirmed delivery; the
// unique index on DeliveryID enforces that.
type StoreReceiptVoucher struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	VoucherNumber string            `gorm:"uniqueIndex;not null" json:"voucher_number"`
	DeliveryID    uint              `gorm:"uniqueIndex;not null" json:"delivery_id"`
	Delivery      *DeliveryTracking `gorm:"foreignKey:DeliveryID" json:"delivery,omitempty"`
	ReceivedBy    string            `json:"received_by"`
	IssuedAt      time.Time         `json:"issued_at"`
	CreatedAt     time.Time         `json:"created_at"`
}
