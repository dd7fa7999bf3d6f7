// models/listing.go
package models

import (
	"time"
)

// ListingStatus is the lifecycle state of a listing. Transitions are
// performed by ListingService; nothing else should write Status.
type ListingStatus string

const (
	StatusAvailable ListingStatus = "Available"
	StatusReserved  ListingStatus = "Reserved"
	StatusSold      ListingStatus = "Sold"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSold:
		return true
	}
	return false
}

type Listing struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Title       string        `json:"title" gorm:"not null"`
	Description string        `json:"description" gorm:"not null"`
	Price       float64       `json:"price" gorm:"not null"`
	Location    string        `json:"location"`
	Category    string        `json:"category"`
	Status      ListingStatus `json:"status" gorm:"type:varchar(20);default:'Available'"`
	SellerID    uint          `json:"seller_id" gorm:"not null;index"`
	// Set while Reserved; retained after Sold to record the buyer.
	ReservedByID *uint     `json:"reserved_by_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Seller     User           `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	ReservedBy *User          `json:"reserved_by,omitempty" gorm:"foreignKey:ReservedByID"`
	Images     []ListingImage `json:"images" gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}

type ListingImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ListingID uint      `json:"listing_id" gorm:"not null;index"`
	Filename  string    `json:"filename" gorm:"not null"`
	// At most one cover per listing; enforced by ListingService, not the schema.
	IsCover   bool      `json:"is_cover" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// CoverImage returns the image flagged as cover, falling back to the first
// image when none is flagged.
func (l *Listing) CoverImage() *ListingImage {
	for i := range l.Images {
		if l.Images[i].IsCover {
			return &l.Images[i]
		}
	}
	if len(l.Images) > 0 {
		return &l.Images[0]
	}
	return nil
}

// Request structs for API
type CreateListingRequest struct {
	Title       string  `form:"title" binding:"required"`
	Description string  `form:"description" binding:"required"`
	Price       float64 `form:"price" binding:"required,gt=0"`
	Category    string  `form:"category"`
	Location    string  `form:"location"`
	CoverIndex  int     `form:"cover_index"`
}

type UpdateListingRequest struct {
	Title          *string  `form:"title"`
	Description    *string  `form:"description"`
	Price          *float64 `form:"price"`
	Category       *string  `form:"category"`
	Location       *string  `form:"location"`
	CoverImageID   *uint    `form:"cover_image_id"`
	CoverIndexNew  *int     `form:"cover_index_new"`
	DeleteImageIDs string   `form:"delete_image_ids"`
}
