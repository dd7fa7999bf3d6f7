package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create handles POST /review/:listing_id/:reviewee_id.
func (h *ReviewHandler) Create(c *gin.Context) {
	userID := c.GetUint("user_id")

	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}
	revieweeID, ok := parseIDParam(c, "reviewee_id")
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.Create(userID, listingID, revieweeID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrListingNotFound), errors.Is(err, services.ErrUserNotFound):
			utils.SendNotFound(c, err.Error())
		case errors.Is(err, services.ErrReviewNotAllowed):
			utils.SendForbidden(c, err.Error())
		case errors.Is(err, services.ErrDuplicateReview):
			utils.SendError(c, http.StatusConflict, err.Error(), nil)
		case errors.Is(err, services.ErrInvalidRating):
			utils.SendValidationError(c, err.Error())
		default:
			utils.SendInternalError(c, "Failed to create review", err)
		}
		return
	}

	utils.SendSuccess(c, "Review submitted", review)
}
