package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/internal/utils"
	"github.com/tradeyard/marketplace-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNotSeller       = errors.New("only the seller can perform this action")
	ErrOwnListing      = errors.New("you cannot reserve your own listing")
	ErrNotAvailable    = errors.New("this listing is not available for reservation")
	ErrNotReserved     = errors.New("this listing is not reserved")
	ErrNotReserver     = errors.New("you do not have permission to cancel this reservation")
	ErrMustBeReserved  = errors.New("listing must be reserved before marking as sold")
)

type ListingService struct {
	db           *gorm.DB
	imageStore   ImageStore
	emailService *EmailService
}

// NewListingService wires the listing store. imageStore and emailService may
// be nil; image persistence and notifications are then skipped.
func NewListingService(db *gorm.DB, imageStore ImageStore, emailService *EmailService) *ListingService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &ListingService{
		db:           db,
		imageStore:   imageStore,
		emailService: emailService,
	}
}

type ListingFilter struct {
	Category string
	Keyword  string
	Location string
	MinPrice *float64
	MaxPrice *float64
	Status   string
	Sort     string
}

// Get loads a listing with its seller, reserver and images.
func (s *ListingService) Get(listingID uint) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Preload("Seller").Preload("ReservedBy").Preload("Images").
		First(&listing, listingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// Search composes the optional filter predicates conjunctively. Absent
// fields (empty strings, nil price bounds) are skipped.
func (s *ListingService) Search(filter ListingFilter) ([]models.Listing, error) {
	query := s.db.Model(&models.Listing{}).Preload("Seller").Preload("Images")
	query = s.applyFilters(query, filter)

	switch filter.Sort {
	case "price_asc":
		query = query.Order("price ASC")
	case "price_desc":
		query = query.Order("price DESC")
	default:
		// Newest first; insertion id stands in for recency.
		query = query.Order("id DESC")
	}

	var listings []models.Listing
	if err := query.Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return listings, nil
}

func (s *ListingService) applyFilters(query *gorm.DB, filter ListingFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.Location != "" {
		query = query.Where("location LIKE ?", "%"+filter.Location+"%")
	}

	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", keyword, keyword)
	}

	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}

	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	return query
}

// Locations returns the distinct non-empty locations across all listings.
func (s *ListingService) Locations() ([]string, error) {
	locations := make([]string, 0)
	err := s.db.Model(&models.Listing{}).
		Distinct("location").
		Where("location IS NOT NULL AND location != ''").
		Order("location").
		Pluck("location", &locations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	return locations, nil
}

// BySeller returns a user's listings, newest first.
func (s *ListingService) BySeller(sellerID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Preload("Images").
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&listings).Error
	return listings, err
}

// Purchases returns sold listings the user bought.
func (s *ListingService) Purchases(userID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Preload("Seller").Preload("Images").
		Where("reserved_by_id = ? AND status = ?", userID, models.StatusSold).
		Order("id DESC").
		Find(&listings).Error
	return listings, err
}

// Sales returns sold listings the user sold.
func (s *ListingService) Sales(userID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Preload("ReservedBy").Preload("Images").
		Where("seller_id = ? AND status = ?", userID, models.StatusSold).
		Order("id DESC").
		Find(&listings).Error
	return listings, err
}

// Create inserts the listing and its images in one transaction. Files with
// disallowed extensions are skipped, matching the upload validation on the
// handler side.
func (s *ListingService) Create(sellerID uint, req models.CreateListingRequest, files []*multipart.FileHeader) (*models.Listing, error) {
	listing := &models.Listing{
		Title:       utils.SanitizeString(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Category:    utils.SanitizeString(req.Category),
		Location:    utils.SanitizeString(req.Location),
		SellerID:    sellerID,
		Status:      models.StatusAvailable,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(listing).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	if err := s.attachImages(tx, listing, sellerID, files, req.CoverIndex); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit listing: %w", err)
	}

	return s.Get(listing.ID)
}

func (s *ListingService) attachImages(tx *gorm.DB, listing *models.Listing, userID uint, files []*multipart.FileHeader, coverIndex int) error {
	for i, file := range files {
		if file == nil || !utils.IsAllowedImage(file.Filename) {
			continue
		}
		name := fmt.Sprintf("%d_%d_%s", userID, listing.ID, utils.SecureFilename(file.Filename))
		if s.imageStore != nil {
			if err := s.imageStore.Save(file, name); err != nil {
				return fmt.Errorf("failed to store image: %w", err)
			}
		}
		image := models.ListingImage{
			ListingID: listing.ID,
			Filename:  name,
			IsCover:   i == coverIndex,
		}
		if err := tx.Create(&image).Error; err != nil {
			return fmt.Errorf("failed to create image record: %w", err)
		}
	}
	return nil
}

// Update edits listing fields and reworks the image set: deletions first,
// then a single cover is chosen among existing or newly added images.
func (s *ListingService) Update(listingID, actorID uint, req models.UpdateListingRequest, files []*multipart.FileHeader) (*models.Listing, error) {
	listing, err := s.Get(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actorID {
		return nil, ErrNotSeller
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = utils.SanitizeString(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["category"] = utils.SanitizeString(*req.Category)
	}
	if req.Location != nil {
		updates["location"] = utils.SanitizeString(*req.Location)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if len(updates) > 0 {
		if err := tx.Model(&models.Listing{}).Where("id = ?", listingID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update listing: %w", err)
		}
	}

	if err := s.deleteImages(tx, listing, req.DeleteImageIDs); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Reset covers before picking the new one.
	if err := tx.Model(&models.ListingImage{}).Where("listing_id = ?", listingID).
		Update("is_cover", false).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to reset cover images: %w", err)
	}

	if req.CoverImageID != nil {
		if err := tx.Model(&models.ListingImage{}).
			Where("id = ? AND listing_id = ?", *req.CoverImageID, listingID).
			Update("is_cover", true).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to set cover image: %w", err)
		}
	}

	newCover := -1
	if req.CoverIndexNew != nil && req.CoverImageID == nil {
		newCover = *req.CoverIndexNew
	}
	if err := s.attachImages(tx, listing, actorID, files, newCover); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit listing update: %w", err)
	}

	return s.Get(listingID)
}

func (s *ListingService) deleteImages(tx *gorm.DB, listing *models.Listing, idList string) error {
	if strings.TrimSpace(idList) == "" {
		return nil
	}
	ids := make([]uint, 0)
	for _, part := range strings.Split(idList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return nil
	}

	for _, img := range listing.Images {
		for _, id := range ids {
			if img.ID != id {
				continue
			}
			if s.imageStore != nil {
				if err := s.imageStore.Remove(img.Filename); err != nil {
					logger.Warn("failed to remove stored image ", img.Filename, ": ", err)
				}
			}
		}
	}

	if err := tx.Where("listing_id = ? AND id IN ?", listing.ID, ids).
		Delete(&models.ListingImage{}).Error; err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	return nil
}

// Delete removes a listing and its images. Seller only.
func (s *ListingService) Delete(listingID, actorID uint) error {
	listing, err := s.Get(listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != actorID {
		return ErrNotSeller
	}

	for _, img := range listing.Images {
		if s.imageStore != nil {
			if err := s.imageStore.Remove(img.Filename); err != nil {
				logger.Warn("failed to remove stored image ", img.Filename, ": ", err)
			}
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("listing_id = ?", listingID).Delete(&models.ListingImage{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete listing images: %w", err)
	}
	if err := tx.Delete(&models.Listing{}, listingID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return tx.Commit().Error
}

// Reserve transitions Available -> Reserved for any authenticated user other
// than the seller. The status change is a compare-and-swap: the UPDATE is
// guarded on the current status, so two concurrent reservations cannot both
// win; the loser sees zero rows affected and gets the same rejection as a
// stale read.
func (s *ListingService) Reserve(listingID, actorID uint) (*models.Listing, error) {
	listing, err := s.Get(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == actorID {
		return nil, ErrOwnListing
	}
	if listing.Status != models.StatusAvailable {
		return nil, ErrNotAvailable
	}

	result := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.StatusAvailable).
		Updates(map[string]interface{}{
			"status":         models.StatusReserved,
			"reserved_by_id": actorID,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to reserve listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotAvailable
	}

	s.notifyReserved(listing, actorID)
	return s.Get(listingID)
}

// CancelReservation transitions Reserved -> Available. Allowed for the
// reserving user or the seller.
func (s *ListingService) CancelReservation(listingID, actorID uint) (*models.Listing, error) {
	listing, err := s.Get(listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.StatusReserved {
		return nil, ErrNotReserved
	}
	if actorID != listing.SellerID && (listing.ReservedByID == nil || *listing.ReservedByID != actorID) {
		return nil, ErrNotReserver
	}

	result := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.StatusReserved).
		Updates(map[string]interface{}{
			"status":         models.StatusAvailable,
			"reserved_by_id": nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotReserved
	}

	return s.Get(listingID)
}

// Relist forces any status back to Available and clears the reserver.
// Seller only; this is the only way out of Sold.
func (s *ListingService) Relist(listingID, actorID uint) (*models.Listing, error) {
	listing, err := s.Get(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actorID {
		return nil, ErrNotSeller
	}

	err = s.db.Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"status":         models.StatusAvailable,
			"reserved_by_id": nil,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to relist listing: %w", err)
	}

	return s.Get(listingID)
}

// MarkSold transitions Reserved -> Sold, keeping the reserver recorded as
// the buyer. Seller only.
func (s *ListingService) MarkSold(listingID, actorID uint) (*models.Listing, error) {
	listing, err := s.Get(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actorID {
		return nil, ErrNotSeller
	}
	if listing.Status != models.StatusReserved {
		return nil, ErrMustBeReserved
	}

	result := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.StatusReserved).
		Update("status", models.StatusSold)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark listing sold: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrMustBeReserved
	}

	s.notifySold(listing)
	return s.Get(listingID)
}

func (s *ListingService) notifyReserved(listing *models.Listing, buyerID uint) {
	if s.emailService == nil || listing.Seller.Email == "" {
		return
	}
	var buyer models.User
	if err := s.db.First(&buyer, buyerID).Error; err != nil {
		return
	}
	if err := s.emailService.SendReservationNotification(listing.Seller.Email, listing.Title, buyer.Username); err != nil {
		logger.WithFields(map[string]interface{}{
			"listing_id": listing.ID,
			"error":      err,
		}).Warn("failed to send reservation notification")
	}
}

func (s *ListingService) notifySold(listing *models.Listing) {
	if s.emailService == nil || listing.ReservedBy == nil || listing.ReservedBy.Email == "" {
		return
	}
	if err := s.emailService.SendSoldNotification(listing.ReservedBy.Email, listing.Title, listing.Seller.Username); err != nil {
		logger.WithFields(map[string]interface{}{
			"listing_id": listing.ID,
			"error":      err,
		}).Warn("failed to send sale notification")
	}
}
