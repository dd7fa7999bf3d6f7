package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var ErrEmptyReason = errors.New("report reason cannot be empty")

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Report files a report against a listing. Reports are append-only; only the
// Resolved flag changes afterwards, through AdminService.
func (s *ReportService) Report(reporterID, listingID uint, reason string) (*models.Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	report := models.Report{
		ReporterID: reporterID,
		ListingID:  &listingID,
		Reason:     reason,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}
