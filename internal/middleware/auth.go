package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/encounter-space/core/internal/pkg/jwt"
	"github.com/encounter-space/core/internal/pkg/response"
	sessionpkg "github.com/encounter-space/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ContextKeyOwnerID = "owner_id"
	ContextKeySID     = "session_id"
	apiTokenPrefix    = "txo"
)

// Auth returns a middleware that enforces JWT or API token authentication.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := ValidateTokenClaims(db, extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyOwnerID, claims.OwnerID)
		if claims.SessionID != "" {
			c.Set(ContextKeySID, claims.SessionID)
			sessionpkg.Touch(db, claims.OwnerID, claims.SessionID)
		}
		c.Next()
	}
}

// OptionalAuth sets the owner ID if a valid token is present, but does not block the request.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := ValidateTokenClaims(db, extractToken(c)); err == nil && claims.OwnerID != "" {
			c.Set(ContextKeyOwnerID, claims.OwnerID)
			if claims.SessionID != "" {
				c.Set(ContextKeySID, claims.SessionID)
			}
		}
		c.Next()
	}
}

// ValidateTokenClaims validates a JWT or API token and returns claims.
func ValidateTokenClaims(db *gorm.DB, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}

	if strings.HasPrefix(token, apiTokenPrefix) {
		ownerID, err := validateAPIToken(db, token)
		if err != nil {
			return nil, err
		}
		return &jwt.Claims{OwnerID: ownerID}, nil
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.OwnerID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentOwnerID extracts the authenticated owner ID from context.
func CurrentOwnerID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyOwnerID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentOwnerID(c) != ""
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func validateAPIToken(db *gorm.DB, token string) (string, error) {
	var row struct {
		OwnerID string
	}
	err := db.Table("api_tokens").
		Select("owner_id").
		Where("token = ? AND (expired_at IS NULL OR expired_at > ?) AND deleted_at IS NULL", token, time.Now()).
		Scan(&row).Error
	if err != nil {
		return "", err
	}
	if row.OwnerID == "" {
		return "", errors.New("api token not found")
	}
	return row.OwnerID, nil
}
