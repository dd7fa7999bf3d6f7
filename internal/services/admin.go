// services/admin.go
package services

import (
	"errors"
	"fmt"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var ErrReportNotFound = errors.New("report not found")

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

type DashboardResponse struct {
	Reports      []models.Report  `json:"reports"`
	Users        []models.User    `json:"users"`
	Listings     []models.Listing `json:"listings"`
	OpenReports  int64            `json:"open_reports"`
	TotalUsers   int64            `json:"total_users"`
	TotalListing int64            `json:"total_listings"`
}

// Dashboard is a read-only aggregation: all reports newest first, plus the
// full user and listing tables with headline counts.
func (s *AdminService) Dashboard() (*DashboardResponse, error) {
	var reports []models.Report
	err := s.db.Preload("Reporter").Preload("Listing").
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}

	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	var listings []models.Listing
	if err := s.db.Preload("Seller").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	var openReports int64
	err = s.db.Model(&models.Report{}).Where("resolved = ?", false).Count(&openReports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count open reports: %w", err)
	}

	return &DashboardResponse{
		Reports:      reports,
		Users:        users,
		Listings:     listings,
		OpenReports:  openReports,
		TotalUsers:   int64(len(users)),
		TotalListing: int64(len(listings)),
	}, nil
}

// ResolveReport flips the resolved flag on a report.
func (s *AdminService) ResolveReport(reportID uint) error {
	result := s.db.Model(&models.Report{}).
		Where("id = ?", reportID).
		Update("resolved", true)
	if result.Error != nil {
		return fmt.Errorf("failed to resolve report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}
