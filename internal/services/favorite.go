package services

import (
	"errors"
	"fmt"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrFavoriteOwnListing = errors.New("you cannot favorite your own listing")
	ErrAlreadyFavorited   = errors.New("already in favorites")
	ErrNotFavorited       = errors.New("not in favorites")
)

type FavoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// Add puts a listing on the user's favorites. Favoriting your own listing is
// forbidden; favoriting twice is an informational no-op, so a user can never
// appear twice in the relation for the same listing.
func (s *FavoriteService) Add(userID, listingID uint) error {
	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if listing.SellerID == userID {
		return ErrFavoriteOwnListing
	}

	favorited, err := s.isFavorited(userID, listingID)
	if err != nil {
		return err
	}
	if favorited {
		return ErrAlreadyFavorited
	}

	user := models.User{ID: userID}
	if err := s.db.Model(&user).Association("Favorites").Append(&listing); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove takes a listing off the favorites; removing one that is not there
// is an informational no-op.
func (s *FavoriteService) Remove(userID, listingID uint) error {
	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	favorited, err := s.isFavorited(userID, listingID)
	if err != nil {
		return err
	}
	if !favorited {
		return ErrNotFavorited
	}

	user := models.User{ID: userID}
	if err := s.db.Model(&user).Association("Favorites").Delete(&listing); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// List returns the user's favorites, newest listing first.
func (s *FavoriteService) List(userID uint) ([]models.Listing, error) {
	var user models.User
	err := s.db.Preload("Favorites", func(db *gorm.DB) *gorm.DB {
		return db.Order("listings.id DESC").Preload("Seller").Preload("Images")
	}).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Favorites, nil
}

func (s *FavoriteService) isFavorited(userID, listingID uint) (bool, error) {
	var count int64
	err := s.db.Table("favorites").
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorites: %w", err)
	}
	return count > 0, nil
}
