package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

type createReportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Create handles POST /report/listing/:listing_id.
func (h *ReportHandler) Create(c *gin.Context) {
	userID := c.GetUint("user_id")
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Report reason required")
		return
	}

	report, err := h.reportService.Report(userID, listingID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrListingNotFound):
			utils.SendNotFound(c, err.Error())
		case errors.Is(err, services.ErrEmptyReason):
			utils.SendValidationError(c, err.Error())
		default:
			utils.SendInternalError(c, "Failed to submit report", err)
		}
		return
	}

	utils.SendSuccess(c, "Report submitted. Thank you for helping keep the platform safe.", report)
}
