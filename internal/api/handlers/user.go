package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type UserHandler struct {
	authService    *services.AuthService
	listingService *services.ListingService
	reviewService  *services.ReviewService
	avatarStore    services.ImageStore
	maxUploadBytes int64
}

func NewUserHandler(authService *services.AuthService, listingService *services.ListingService, reviewService *services.ReviewService, avatarStore services.ImageStore, maxUploadBytes int64) *UserHandler {
	return &UserHandler{
		authService:    authService,
		listingService: listingService,
		reviewService:  reviewService,
		avatarStore:    avatarStore,
		maxUploadBytes: maxUploadBytes,
	}
}

// Profile handles GET /user/:username — the public profile: the user, their
// listings, reviews received, and the average rating (null when unreviewed).
func (h *UserHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.authService.GetUserByUsername(username)
	if err != nil {
		utils.SendNotFound(c, "User not found")
		return
	}

	listings, err := h.listingService.BySeller(user.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve listings", err)
		return
	}

	reviews, err := h.reviewService.ForUser(user.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve reviews", err)
		return
	}

	avgRating, err := h.reviewService.AverageRating(user.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to compute rating", err)
		return
	}

	utils.SendSuccess(c, "Profile retrieved successfully", gin.H{
		"user":       user,
		"listings":   listings,
		"reviews":    reviews,
		"avg_rating": avgRating,
	})
}

// UploadAvatar handles POST /user/:username. Users can only change their own
// avatar; the stored name is <user_id>_<secured original name>.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	username := c.Param("username")
	userID := c.GetUint("user_id")

	user, err := h.authService.GetUserByUsername(username)
	if err != nil {
		utils.SendNotFound(c, "User not found")
		return
	}
	if user.ID != userID {
		utils.SendForbidden(c, "You can only update your own avatar")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		utils.SendValidationError(c, "Avatar file required")
		return
	}
	if !utils.IsAllowedImage(file.Filename) {
		utils.SendValidationError(c, "Unsupported image type")
		return
	}
	if file.Size > h.maxUploadBytes {
		utils.SendValidationError(c, "Avatar file too large")
		return
	}

	name := fmt.Sprintf("%d_%s", user.ID, utils.SecureFilename(file.Filename))
	if err := h.avatarStore.Save(file, name); err != nil {
		utils.SendInternalError(c, "Failed to store avatar", err)
		return
	}
	if err := h.authService.SetAvatar(user.ID, name); err != nil {
		utils.SendInternalError(c, "Failed to update avatar", err)
		return
	}

	utils.SendSuccess(c, "Avatar updated", gin.H{
		"avatar_filename": name,
		"avatar_url":      h.avatarStore.URL(name),
	})
}
