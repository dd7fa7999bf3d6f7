package models

import (
	"time"
)

type Report struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReporterID uint      `json:"reporter_id" gorm:"not null"`
	ListingID  *uint     `json:"listing_id"`
	Reason     string    `json:"reason" gorm:"not null"`
	Resolved   bool      `json:"resolved" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Reporter User     `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
	Listing  *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
}
