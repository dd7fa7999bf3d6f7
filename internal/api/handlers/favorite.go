package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type FavoriteHandler struct {
	favoriteService *services.FavoriteService
}

func NewFavoriteHandler(favoriteService *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// Add handles POST /favorite/:listing_id. Re-favoriting is a no-op with an
// informational message, not an error.
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID := c.GetUint("user_id")
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	err := h.favoriteService.Add(userID, listingID)
	switch {
	case err == nil:
		utils.SendSuccess(c, "Added to favorites", nil)
	case errors.Is(err, services.ErrAlreadyFavorited):
		utils.SendSuccess(c, "Already in favorites", nil)
	case errors.Is(err, services.ErrFavoriteOwnListing):
		utils.SendForbidden(c, err.Error())
	case errors.Is(err, services.ErrListingNotFound):
		utils.SendNotFound(c, err.Error())
	default:
		utils.SendInternalError(c, "Failed to add favorite", err)
	}
}

// Remove handles POST /unfavorite/:listing_id. Removing a listing that is
// not favorited is a no-op.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID := c.GetUint("user_id")
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	err := h.favoriteService.Remove(userID, listingID)
	switch {
	case err == nil:
		utils.SendSuccess(c, "Removed from favorites", nil)
	case errors.Is(err, services.ErrNotFavorited):
		utils.SendSuccess(c, "Not in favorites", nil)
	case errors.Is(err, services.ErrListingNotFound):
		utils.SendNotFound(c, err.Error())
	default:
		utils.SendInternalError(c, "Failed to remove favorite", err)
	}
}

func (h *FavoriteHandler) List(c *gin.Context) {
	userID := c.GetUint("user_id")

	listings, err := h.favoriteService.List(userID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve favorites", err)
		return
	}

	utils.SendSuccess(c, "Favorites retrieved successfully", listings)
}
