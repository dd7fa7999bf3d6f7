package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard()
	if err != nil {
		utils.SendInternalError(c, "Failed to load dashboard", err)
		return
	}

	utils.SendSuccess(c, "Dashboard retrieved successfully", dashboard)
}

func (h *AdminHandler) ResolveReport(c *gin.Context) {
	reportID, ok := parseIDParam(c, "report_id")
	if !ok {
		return
	}

	if err := h.adminService.ResolveReport(reportID); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendNotFound(c, err.Error())
			return
		}
		utils.SendInternalError(c, "Failed to resolve report", err)
		return
	}

	utils.SendSuccess(c, "Report resolved", nil)
}
