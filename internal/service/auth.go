package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"souqly/internal/config"
	"souqly/internal/model"
)

// AuthService issues and validates access tokens.
type AuthService struct {
	config *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{config: cfg}
}

// GenerateAccessToken issues a signed token for the user.
func (s *AuthService) GenerateAccessToken(userID int64) (*model.TokenResponse, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: signed,
		ExpiresIn:   s.config.AccessTokenMaxAge,
	}, nil
}

// ParseAccessToken validates a token and returns the user id it carries.
func (s *AuthService) ParseAccessToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, model.ErrAuthRequired
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, model.ErrAuthRequired
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, model.ErrAuthRequired
	}

	return int64(userIDFloat), nil
}
