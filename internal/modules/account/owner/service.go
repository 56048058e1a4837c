package owner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/models"
	"github.com/encounter-space/core/internal/pkg/session"
)

var (
	ErrOwnerExists    = errors.New("owner already registered")
	ErrBadCredentials = errors.New("invalid username or password")
)

// Service manages the single operator account of this deployment.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Register creates the operator account. Allowed exactly once; a second
// registration attempt is rejected.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*models.OwnerModel, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.OwnerModel{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrOwnerExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	owner := &models.OwnerModel{
		Username: strings.TrimSpace(req.Username),
		Name:     strings.TrimSpace(req.Name),
		Password: string(hash),
		Mail:     strings.ToLower(strings.TrimSpace(req.Mail)),
	}
	if owner.Name == "" {
		owner.Name = owner.Username
	}
	if err := s.db.WithContext(ctx).Create(owner).Error; err != nil {
		return nil, err
	}

	s.log.Info("owner registered", zap.String("username", owner.Username))
	return owner, nil
}

// Login checks credentials and issues a session-bound JWT.
func (s *Service) Login(ctx context.Context, req *LoginRequest, ip, ua string) (*LoginResponse, error) {
	var owner models.OwnerModel
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(req.Username)).First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(owner.Password), []byte(req.Password)) != nil {
		s.log.Warn("failed login attempt", zap.String("username", owner.Username), zap.String("ip", ip))
		return nil, ErrBadCredentials
	}

	token, sess, err := session.Issue(s.db.WithContext(ctx), owner.ID, ip, ua, session.DefaultTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.WithContext(ctx).Model(&owner).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})

	s.log.Info("owner logged in", zap.String("username", owner.Username), zap.String("ip", ip))
	return &LoginResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Username:  owner.Username,
		Name:      owner.Name,
	}, nil
}

// Logout revokes the session backing the presented JWT.
func (s *Service) Logout(ctx context.Context, ownerID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return session.Revoke(s.db.WithContext(ctx), ownerID, sessionID)
}

// Profile returns the operator account by id.
func (s *Service) Profile(ctx context.Context, ownerID string) (*models.OwnerModel, error) {
	var owner models.OwnerModel
	if err := s.db.WithContext(ctx).Where("id = ?", ownerID).First(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

// CreateToken issues a personal API token for programmatic access.
func (s *Service) CreateToken(ctx context.Context, ownerID string, req *CreateTokenRequest) (*models.APIToken, error) {
	token := &models.APIToken{
		OwnerID:   ownerID,
		Token:     "txo" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:      strings.TrimSpace(req.Name),
		ExpiredAt: req.ExpiredAt,
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// Tokens lists the owner's API tokens.
func (s *Service) Tokens(ctx context.Context, ownerID string) ([]models.APIToken, error) {
	var tokens []models.APIToken
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

// DeleteToken revokes one API token.
func (s *Service) DeleteToken(ctx context.Context, ownerID, tokenID string) error {
	tx := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", tokenID, ownerID).
		Delete(&models.APIToken{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
