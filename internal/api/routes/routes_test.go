package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeyard/marketplace-backend/internal/api/routes"
	"github.com/tradeyard/marketplace-backend/internal/config"
	"github.com/tradeyard/marketplace-backend/internal/database"
	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init()
	os.Exit(m.Run())
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Environment:    "test",
		JWTSecret:      "test-secret",
		UploadDir:      t.TempDir(),
		AvatarDir:      t.TempDir(),
		MaxUploadBytes: 2 * 1024 * 1024,
		StorageBackend: "local",
		RateLimitRPS:   1000,
	}

	router := gin.New()
	require.NoError(t, routes.SetupRoutes(router, db, cfg))
	return router, db
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp apiResponse
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()

	rr, resp := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var data struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Tokens.AccessToken)
	return data.Tokens.AccessToken
}

func seedListing(t *testing.T, db *gorm.DB, username, title string, price float64) *models.Listing {
	t.Helper()

	var seller models.User
	require.NoError(t, db.Where("username = ?", username).First(&seller).Error)
	listing := &models.Listing{
		Title:       title,
		Description: "test item",
		Price:       price,
		SellerID:    seller.ID,
		Status:      models.StatusAvailable,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestListingsFilterEndpoint(t *testing.T) {
	router, db := setupRouter(t)
	registerUser(t, router, "seller")

	seedListing(t, db, "seller", "Cheap", 5)
	inRange1 := seedListing(t, db, "seller", "Mid", 12)
	inRange2 := seedListing(t, db, "seller", "Upper", 19)
	seedListing(t, db, "seller", "Pricey", 50)

	t.Run("PriceRangeAscending", func(t *testing.T) {
		rr, resp := doJSON(t, router, http.MethodGet, "/listings?min_price=10&max_price=20&sort=price_asc", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var data struct {
			Listings []models.Listing `json:"listings"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		require.Len(t, data.Listings, 2)
		assert.Equal(t, inRange1.ID, data.Listings[0].ID)
		assert.Equal(t, inRange2.ID, data.Listings[1].ID)
	})

	t.Run("MalformedBoundsSilentlyIgnored", func(t *testing.T) {
		rr, resp := doJSON(t, router, http.MethodGet, "/listings?min_price=abc&max_price=", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var data struct {
			Listings []models.Listing `json:"listings"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Len(t, data.Listings, 4)
	})
}

func TestLifecycleEndpoints(t *testing.T) {
	router, db := setupRouter(t)
	sellerToken := registerUser(t, router, "seller")
	buyerToken := registerUser(t, router, "buyer")

	listing := seedListing(t, db, "seller", "Bike", 75)
	path := func(action string) string {
		return fmt.Sprintf("/listing/%d/%s", listing.ID, action)
	}

	t.Run("RequiresAuth", func(t *testing.T) {
		rr, _ := doJSON(t, router, http.MethodPost, path("reserve"), "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("SellerCannotReserve", func(t *testing.T) {
		rr, _ := doJSON(t, router, http.MethodPost, path("reserve"), sellerToken, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("BuyerReserves", func(t *testing.T) {
		rr, _ := doJSON(t, router, http.MethodPost, path("reserve"), buyerToken, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var reloaded models.Listing
		require.NoError(t, db.First(&reloaded, listing.ID).Error)
		assert.Equal(t, models.StatusReserved, reloaded.Status)
	})

	t.Run("SecondReserveConflicts", func(t *testing.T) {
		otherToken := registerUser(t, router, "late_buyer")
		rr, _ := doJSON(t, router, http.MethodPost, path("reserve"), otherToken, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("OnlySellerMarksSold", func(t *testing.T) {
		rr, _ := doJSON(t, router, http.MethodPost, path("mark_sold"), buyerToken, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr, _ = doJSON(t, router, http.MethodPost, path("mark_sold"), sellerToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var reloaded models.Listing
		require.NoError(t, db.First(&reloaded, listing.ID).Error)
		assert.Equal(t, models.StatusSold, reloaded.Status)
		assert.NotNil(t, reloaded.ReservedByID)
	})
}

func newListingForm(t *testing.T, title string, imageSize int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", "handler test item"))
	require.NoError(t, w.WriteField("price", "15"))
	if imageSize > 0 {
		fw, err := w.CreateFormFile("images", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte{0x42}, imageSize))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadSizeCap(t *testing.T) {
	router, db := setupRouter(t)
	token := registerUser(t, router, "seller")

	t.Run("OversizedRequestRejected", func(t *testing.T) {
		body, contentType := newListingForm(t, "Big", 3*1024*1024)
		req := httptest.NewRequest(http.MethodPost, "/listing/new", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

		var count int64
		require.NoError(t, db.Model(&models.Listing{}).Count(&count).Error)
		assert.EqualValues(t, 0, count)
	})

	t.Run("SmallUploadAccepted", func(t *testing.T) {
		body, contentType := newListingForm(t, "Small", 16*1024)
		req := httptest.NewRequest(http.MethodPost, "/listing/new", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var listing models.Listing
		require.NoError(t, db.Preload("Images").Where("title = ?", "Small").First(&listing).Error)
		require.Len(t, listing.Images, 1)
	})
}

func TestAdminEndpointGating(t *testing.T) {
	router, db := setupRouter(t)
	userToken := registerUser(t, router, "plain_user")

	rr, _ := doJSON(t, router, http.MethodGet, "/admin", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Promote and log in again so the claim carries the admin flag.
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", "plain_user").
		Update("is_admin", true).Error)

	rr2, resp := doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"username": "plain_user",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rr2.Code)

	var data struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	rr3, _ := doJSON(t, router, http.MethodGet, "/admin", data.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rr3.Code)
}
