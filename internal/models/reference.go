package models

import "time"

// Region is a lookup entity for supplier and school locations.
type Region struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Commodity is a tradable good a supplier may offer. IsProcessedFood drives
// the conditional FDA certificate requirement.
type Commodity struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Code            string    `gorm:"unique;not null" json:"code"`
	IsProcessedFood bool      `gorm:"default:false" json:"is_processed_food"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// School is a delivery destination for supply contracts.
type School struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	RegionID  uint      `gorm:"not null;index" json:"region_id"`
	Region    *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	District  string    `json:"district"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
