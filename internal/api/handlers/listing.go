package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type ListingHandler struct {
	listingService *services.ListingService
}

func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// List handles GET /listings with the optional filter query parameters.
// Malformed numeric bounds are dropped silently rather than rejected.
func (h *ListingHandler) List(c *gin.Context) {
	filter := services.ListingFilter{
		Category: c.Query("category"),
		Keyword:  c.Query("keyword"),
		Location: c.Query("location"),
		Status:   c.Query("status"),
		Sort:     c.DefaultQuery("sort", "newest"),
	}

	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &v
		}
	}

	listings, err := h.listingService.Search(filter)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve listings", err)
		return
	}

	locations, err := h.listingService.Locations()
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve locations", err)
		return
	}

	utils.SendSuccess(c, "Listings retrieved successfully", gin.H{
		"listings":  listings,
		"locations": locations,
	})
}

func (h *ListingHandler) Get(c *gin.Context) {
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	listing, err := h.listingService.Get(listingID)
	if err != nil {
		h.sendListingError(c, "Failed to retrieve listing", err)
		return
	}

	utils.SendSuccess(c, "Listing retrieved successfully", listing)
}

func (h *ListingHandler) Create(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.CreateListingRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	files := formFiles(c, "images")
	listing, err := h.listingService.Create(userID, req, files)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to create listing", err)
		return
	}

	utils.SendSuccess(c, "Listing created", listing)
}

func (h *ListingHandler) Update(c *gin.Context) {
	userID := c.GetUint("user_id")
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	var req models.UpdateListingRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	files := formFiles(c, "images")
	listing, err := h.listingService.Update(listingID, userID, req, files)
	if err != nil {
		h.sendListingError(c, "Failed to update listing", err)
		return
	}

	utils.SendSuccess(c, "Listing updated", listing)
}

func (h *ListingHandler) Delete(c *gin.Context) {
	userID := c.GetUint("user_id")
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	if err := h.listingService.Delete(listingID, userID); err != nil {
		h.sendListingError(c, "Failed to delete listing", err)
		return
	}

	utils.SendSuccess(c, "Listing deleted", nil)
}

func (h *ListingHandler) Reserve(c *gin.Context) {
	h.transition(c, h.listingService.Reserve, "You have reserved this listing")
}

func (h *ListingHandler) CancelReservation(c *gin.Context) {
	h.transition(c, h.listingService.CancelReservation, "Reservation cancelled")
}

func (h *ListingHandler) Relist(c *gin.Context) {
	h.transition(c, h.listingService.Relist, "Listing relisted as available")
}

func (h *ListingHandler) MarkSold(c *gin.Context) {
	h.transition(c, h.listingService.MarkSold, "Listing marked as sold")
}

func (h *ListingHandler) transition(c *gin.Context, fn func(uint, uint) (*models.Listing, error), message string) {
	userID := c.GetUint("user_id")
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	listing, err := fn(listingID, userID)
	if err != nil {
		h.sendListingError(c, "Action not allowed", err)
		return
	}

	utils.SendSuccess(c, message, listing)
}

func (h *ListingHandler) MyPurchases(c *gin.Context) {
	userID := c.GetUint("user_id")

	listings, err := h.listingService.Purchases(userID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve purchases", err)
		return
	}

	utils.SendSuccess(c, "Purchases retrieved successfully", listings)
}

func (h *ListingHandler) MySales(c *gin.Context) {
	userID := c.GetUint("user_id")

	listings, err := h.listingService.Sales(userID)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve sales", err)
		return
	}

	utils.SendSuccess(c, "Sales retrieved successfully", listings)
}

// sendListingError maps the service sentinels onto HTTP status codes. Guard
// failures on lifecycle transitions come back as 403/409 with the rejection
// message; state is untouched either way.
func (h *ListingHandler) sendListingError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrListingNotFound):
		utils.SendNotFound(c, err.Error())
	case errors.Is(err, services.ErrNotSeller),
		errors.Is(err, services.ErrNotReserver),
		errors.Is(err, services.ErrOwnListing):
		utils.SendForbidden(c, err.Error())
	case errors.Is(err, services.ErrNotAvailable),
		errors.Is(err, services.ErrNotReserved),
		errors.Is(err, services.ErrMustBeReserved):
		utils.SendError(c, http.StatusConflict, err.Error(), nil)
	default:
		utils.SendInternalError(c, message, err)
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// formFiles returns the uploaded files for a multipart field, or nil when
// the request carries no multipart form.
func formFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}
