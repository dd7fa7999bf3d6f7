package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrReviewNotAllowed = errors.New("you cannot review this transaction")
	ErrDuplicateReview  = errors.New("you have already reviewed this user for this transaction")
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// Create records a review for one side of a completed sale. The listing must
// be Sold and the reviewer must be its seller or its recorded buyer. A second
// review for the same (reviewer, reviewee, listing) triple is rejected
// without touching state.
func (s *ReviewService) Create(reviewerID, listingID, revieweeID uint, req CreateReviewRequest) (*models.Review, error) {
	if !utils.IsValidRating(req.Rating) {
		return nil, ErrInvalidRating
	}

	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	var reviewee models.User
	if err := s.db.First(&reviewee, revieweeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	isBuyer := listing.ReservedByID != nil && *listing.ReservedByID == reviewerID
	if listing.Status != models.StatusSold || (reviewerID != listing.SellerID && !isBuyer) {
		return nil, ErrReviewNotAllowed
	}

	var existing models.Review
	err := s.db.Where("reviewer_id = ? AND reviewee_id = ? AND listing_id = ?",
		reviewerID, revieweeID, listingID).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateReview
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := models.Review{
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		ListingID:  listingID,
		Rating:     req.Rating,
		Comment:    utils.SanitizeString(req.Comment),
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.db.Preload("Reviewer").Preload("Reviewee").First(&review, review.ID)
	return &review, nil
}

// ForUser returns reviews received by a user, newest first.
func (s *ReviewService) ForUser(userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("Reviewer").Preload("Listing").
		Where("reviewee_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return reviews, nil
}

// AverageRating is the mean of all ratings received, rounded to two
// decimals. Nil when the user has no reviews; zero would be misleading.
func (s *ReviewService) AverageRating(userID uint) (*float64, error) {
	var count int64
	if err := s.db.Model(&models.Review{}).Where("reviewee_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	var avg float64
	err := s.db.Model(&models.Review{}).
		Where("reviewee_id = ?", userID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}

	rounded := math.Round(avg*100) / 100
	return &rounded, nil
}
