package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/api/handlers"
	"github.com/tradeyard/marketplace-backend/internal/api/middleware"
	"github.com/tradeyard/marketplace-backend/internal/config"
	"github.com/tradeyard/marketplace-backend/internal/services"
	"github.com/tradeyard/marketplace-backend/pkg/logger"
	"gorm.io/gorm"
)

func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) error {
	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg))

	// Requests larger than the configured cap (2MB by default) are rejected
	// with 413 before any handler runs.
	router.Use(middleware.BodySizeLimit(cfg.MaxUploadBytes))
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	uploadStore, avatarStore, err := services.NewImageStores(cfg)
	if err != nil {
		return err
	}

	// Initialize services
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(db, cfg.JWTSecret)
	listingService := services.NewListingService(db, uploadStore, emailService)
	messageService := services.NewMessageService(db)
	reviewService := services.NewReviewService(db)
	favoriteService := services.NewFavoriteService(db)
	reportService := services.NewReportService(db)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	listingHandler := handlers.NewListingHandler(listingService)
	userHandler := handlers.NewUserHandler(authService, listingService, reviewService, avatarStore, cfg.MaxUploadBytes)
	messageHandler := handlers.NewMessageHandler(messageService, authService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	reportHandler := handlers.NewReportHandler(reportService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})

	// Stored images are served straight from disk on the local backend; the
	// S3 backend serves them from bucket URLs instead.
	if local, ok := uploadStore.(*services.LocalImageStore); ok {
		router.Static("/uploads", local.Dir())
	}
	if local, ok := avatarStore.(*services.LocalImageStore); ok {
		router.Static("/avatars", local.Dir())
	}

	// Auth routes (public)
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.POST("/refresh-token", authHandler.RefreshToken)

	auth := middleware.AuthMiddleware(cfg)

	router.POST("/logout", auth, authHandler.Logout)
	router.GET("/profile", auth, authHandler.GetProfile)
	router.PUT("/profile", auth, authHandler.UpdateProfile)

	// Listings
	router.GET("/listings", listingHandler.List)
	router.GET("/listing/:listing_id", listingHandler.Get)
	router.POST("/listing/new", auth, listingHandler.Create)

	listing := router.Group("/listing/:listing_id", auth)
	{
		listing.POST("/edit", listingHandler.Update)
		listing.POST("/delete", listingHandler.Delete)
		listing.POST("/reserve", listingHandler.Reserve)
		listing.POST("/cancel_reservation", listingHandler.CancelReservation)
		listing.POST("/relist", listingHandler.Relist)
		listing.POST("/mark_sold", listingHandler.MarkSold)
	}

	// Profiles and avatars
	router.GET("/user/:username", userHandler.Profile)
	router.POST("/user/:username", auth, userHandler.UploadAvatar)

	// Messaging
	router.GET("/conversations", auth, messageHandler.Conversations)
	router.GET("/messages/:username", auth, messageHandler.Conversation)
	router.POST("/messages/:username", auth, messageHandler.Send)
	router.POST("/message/send/:recipient_id", auth, messageHandler.SendByID)

	// Favorites
	router.POST("/favorite/:listing_id", auth, favoriteHandler.Add)
	router.POST("/unfavorite/:listing_id", auth, favoriteHandler.Remove)
	router.GET("/my_favorites", auth, favoriteHandler.List)
	router.GET("/my_purchases", auth, listingHandler.MyPurchases)
	router.GET("/my_sales", auth, listingHandler.MySales)

	// Reviews and reports
	router.POST("/review/:listing_id/:reviewee_id", auth, reviewHandler.Create)
	router.POST("/report/listing/:listing_id", auth, reportHandler.Create)

	// Admin routes
	admin := router.Group("/admin", auth, middleware.AdminOnly())
	{
		admin.GET("", adminHandler.Dashboard)
		admin.POST("/report/:report_id/resolve", adminHandler.ResolveReport)
	}

	logger.Info("Routes initialized successfully")
	return nil
}
