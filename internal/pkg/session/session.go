package session

import (
	"strings"
	"time"

	"github.com/encounter-space/core/internal/models"
	jwtpkg "github.com/encounter-space/core/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 30 * 24 * time.Hour

// Issue creates a DB session and signs a JWT bound to that session.
func Issue(db *gorm.DB, ownerID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	s := &models.UserSession{
		OwnerID:    ownerID,
		IP:         strings.TrimSpace(ip),
		UA:         strings.TrimSpace(ua),
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.SignWithSession(ownerID, s.ID, ttl)
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// IsActive reports whether the session backing a JWT is still valid.
func IsActive(db *gorm.DB, ownerID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		// Legacy token without sid.
		return true, nil
	}

	var count int64
	err := db.Model(&models.UserSession{}).
		Where("id = ? AND owner_id = ? AND expires_at > ?", sessionID, ownerID, time.Now()).
		Count(&count).Error
	return count > 0, err
}

// Touch updates the session's last-seen timestamp, best effort.
func Touch(db *gorm.DB, ownerID, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	db.Model(&models.UserSession{}).
		Where("id = ? AND owner_id = ?", sessionID, ownerID).
		Update("last_seen_at", time.Now())
}

// Revoke deletes one session, logging the holder out.
func Revoke(db *gorm.DB, ownerID, sessionID string) error {
	return db.Where("id = ? AND owner_id = ?", sessionID, ownerID).
		Delete(&models.UserSession{}).Error
}

// PruneExpired hard-deletes sessions past their expiry.
func PruneExpired(db *gorm.DB) (int64, error) {
	tx := db.Unscoped().Where("expires_at <= ?", time.Now()).Delete(&models.UserSession{})
	return tx.RowsAffected, tx.Error
}
