package models

import (
	"time"
)

// Review records feedback between the two parties of a completed sale.
// One review per (reviewer, reviewee, listing) triple, enforced by
// ReviewService rather than a database constraint.
type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReviewerID uint      `json:"reviewer_id" gorm:"not null;index"`
	RevieweeID uint      `json:"reviewee_id" gorm:"not null;index"`
	ListingID  uint      `json:"listing_id" gorm:"not null"`
	Rating     int       `json:"rating" gorm:"check:rating >= 1 AND rating <= 5"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Reviewer User    `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	Reviewee User    `json:"reviewee,omitempty" gorm:"foreignKey:RevieweeID"`
	Listing  Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
}
