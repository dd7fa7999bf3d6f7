package services

import (
	"errors"
	"time"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/internal/types"
	"github.com/tradeyard/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	Email       *string `json:"email"`
	NewPassword *string `json:"new_password"`
}

func (s *AuthService) Register(req RegisterRequest) (*types.AuthResponse, error) {
	if !utils.IsValidUsername(req.Username) {
		return nil, errors.New("username must be between 3 and 150 characters")
	}
	if !utils.IsValidPassword(req.Password) {
		return nil, errors.New("password must be at least 8 characters")
	}

	var existingUser models.User
	if err := s.db.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	user := models.User{
		Username: utils.SanitizeString(req.Username),
		Email:    utils.SanitizeString(req.Email),
		Password: req.Password, // Hashed in BeforeCreate hook
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, errors.New("failed to create user")
	}

	return s.issueTokens(&user)
}

func (s *AuthService) Login(req LoginRequest) (*types.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(&user)
}

func (s *AuthService) issueTokens(user *models.User) (*types.AuthResponse, error) {
	tokenPair, err := utils.GenerateTokenPair(user.ID, user.Username, user.IsAdmin, s.jwtSecret)
	if err != nil {
		return nil, errors.New("failed to generate tokens")
	}

	refreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     tokenPair.RefreshToken,
		ExpiresAt: time.Unix(tokenPair.RefreshTokenExpiresAt, 0),
		IsRevoked: false,
	}
	if err := s.db.Create(&refreshToken).Error; err != nil {
		return nil, errors.New("failed to store refresh token")
	}

	return &types.AuthResponse{
		Tokens: *tokenPair,
		User:   *user,
	}, nil
}

func (s *AuthService) RefreshToken(req RefreshRequest) (*types.AuthResponse, error) {
	claims, err := utils.ValidateToken(req.RefreshToken, s.jwtSecret)
	if err != nil || claims.Type != string(utils.RefreshToken) {
		return nil, errors.New("invalid refresh token")
	}

	var stored models.RefreshToken
	err = s.db.Where("token = ? AND is_revoked = ?", req.RefreshToken, false).First(&stored).Error
	if err != nil {
		return nil, errors.New("refresh token not recognized")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, errors.New("refresh token expired")
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	// Rotate: revoke the presented token before issuing a new pair.
	if err := s.db.Model(&stored).Update("is_revoked", true).Error; err != nil {
		return nil, errors.New("failed to rotate refresh token")
	}

	return s.issueTokens(&user)
}

func (s *AuthService) Logout(refreshToken string) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("token = ?", refreshToken).
		Update("is_revoked", true).Error
}

func (s *AuthService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(userID uint, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = utils.SanitizeString(*req.Email)
	}
	if req.NewPassword != nil {
		if !utils.IsValidPassword(*req.NewPassword) {
			return nil, errors.New("password must be at least 8 characters")
		}
		if err := user.UpdatePassword(*req.NewPassword); err != nil {
			return nil, errors.New("failed to update password")
		}
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, errors.New("failed to update profile")
	}
	return user, nil
}

// SetAvatar records the stored avatar filename on the user.
func (s *AuthService) SetAvatar(userID uint, filename string) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar_filename", filename).Error
}
