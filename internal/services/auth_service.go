package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/config"
	"github.com/sitescope/backend/internal/models"
	"github.com/sitescope/backend/pkg/crypto"
	jwtpkg "github.com/sitescope/backend/pkg/jwt"
	"github.com/sitescope/backend/pkg/validation"
	"gorm.io/gorm"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

// Login authenticates a user and returns access and refresh tokens
func (s *AuthService) Login(username, password string) (string, string, *models.User, error) {
	var user models.User

	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, errors.New("invalid credentials")
		}
		return "", "", nil, err
	}

	if !user.IsActive {
		return "", "", nil, errors.New("account is deactivated")
	}

	if !crypto.CheckPassword(password, user.Password) {
		return "", "", nil, errors.New("invalid credentials")
	}

	accessToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", "", nil, err
	}

	refreshToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.RefreshToken, s.cfg.JWTSecret, s.cfg.JWTRefreshTokenDuration)
	if err != nil {
		return "", "", nil, err
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshTokenDuration),
	}

	if err := s.db.Create(refreshTokenModel).Error; err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, &user, nil
}

// Register creates a new user account
func (s *AuthService) Register(username, email, password, name string) (*models.User, error) {
	if !validation.ValidateUsername(username) {
		return nil, errors.New("invalid username")
	}
	if !validation.ValidateEmail(email) {
		return nil, errors.New("invalid email")
	}
	if !validation.ValidatePassword(password) {
		return nil, errors.New("password does not meet requirements")
	}

	var existingUser models.User
	if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == nil {
		if existingUser.Username == username {
			return nil, errors.New("username already taken")
		}
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Name:     validation.SanitizeString(name),
		IsActive: true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// RefreshToken exchanges a valid refresh token for a new access token
func (s *AuthService) RefreshToken(refreshToken string) (string, error) {
	claims, err := jwtpkg.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil || claims.TokenType != jwtpkg.RefreshToken {
		return "", errors.New("invalid refresh token")
	}

	var stored models.RefreshToken
	if err := s.db.Where("token = ?", refreshToken).First(&stored).Error; err != nil {
		return "", errors.New("refresh token not recognized")
	}
	if time.Now().After(stored.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}

	return jwtpkg.GenerateToken(claims.UserID, jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
}

// Logout invalidates all refresh tokens of a user
func (s *AuthService) Logout(userID uuid.UUID) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// ValidateAccessToken validates an access token and returns its claims
func (s *AuthService) ValidateAccessToken(token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwtpkg.AccessToken {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// GetUserByID loads a user by identifier
func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) CleanupExpiredTokens() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}

// CreateDefaultAdmin creates the admin account on first start if absent
func (s *AuthService) CreateDefaultAdmin() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := crypto.HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: s.cfg.AdminUsername,
		Email:    s.cfg.AdminEmail,
		Password: hashedPassword,
		Name:     "Administrator",
		IsAdmin:  true,
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}
	log.Printf("Default admin user %q created", s.cfg.AdminUsername)
	return nil
}
