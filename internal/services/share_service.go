package services

import (
	"errors"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/sitescope/backend/internal/config"
	jwtpkg "github.com/sitescope/backend/pkg/jwt"
)

// ShareService issues signed, expiring share links for media items and
// renders them as QR codes.
type ShareService struct {
	cfg *config.Config
}

func NewShareService(cfg *config.Config) *ShareService {
	return &ShareService{cfg: cfg}
}

type ShareLink struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateShareLink signs a token for the media item and wraps it in the
// public resolve URL.
func (s *ShareService) CreateShareLink(mediaID string) (*ShareLink, error) {
	token, err := jwtpkg.GenerateShareToken(mediaID, s.cfg.JWTSecret, s.cfg.ShareTokenDuration)
	if err != nil {
		return nil, err
	}
	return &ShareLink{
		URL:       fmt.Sprintf("%s/api/v1/public/media/shared?token=%s", s.cfg.APIUrl, token),
		Token:     token,
		ExpiresAt: time.Now().Add(s.cfg.ShareTokenDuration),
	}, nil
}

// ResolveShareToken validates a share token and returns the media ID it
// grants access to.
func (s *ShareService) ResolveShareToken(token string) (string, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return "", err
	}
	if claims.TokenType != jwtpkg.ShareToken || claims.MediaID == "" {
		return "", errors.New("not a share token")
	}
	return claims.MediaID, nil
}

// QRCodePNG renders a share URL as a PNG QR code.
func (s *ShareService) QRCodePNG(shareURL string) ([]byte, error) {
	return qrcode.Encode(shareURL, qrcode.Medium, 512)
}
