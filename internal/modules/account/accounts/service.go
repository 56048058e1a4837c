package accounts

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/models"
)

// Service reads and mutates the account projection on behalf of the
// frontend. Soft-deleted accounts are invisible here; only the sync
// pipeline sees them.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Get returns an active account by provider user id.
func (s *Service) Get(ctx context.Context, userID string) (*models.AccountModel, error) {
	var account models.AccountModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Patch updates the user-editable fields. Absent fields are left alone.
func (s *Service) Patch(ctx context.Context, userID string, req *PatchRequest) (*models.AccountModel, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.DisplayName != nil {
		changes["display_name"] = *req.DisplayName
	}
	if req.Metadata != nil {
		changes["metadata"] = models.JSONMap(req.Metadata)
	}
	if len(changes) == 0 {
		return account, nil
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(changes).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Delete soft-deletes an active account. Deleting an absent or already
// deleted account reports not found.
func (s *Service) Delete(ctx context.Context, userID string) error {
	tx := s.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("user_id = ?", userID).
		UpdateColumn("deleted_at", time.Now())
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.log.Info("account deleted via api", zap.String("user_id", userID))
	return nil
}

// List returns a filtered page query over active accounts.
func (s *Service) List(ctx context.Context, filter ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Order("created_at DESC")
	if filter.Tier != "" {
		q = q.Where("tier = ?", filter.Tier)
	}
	return q
}

// Usage computes the usage report for an active account.
func (s *Service) Usage(ctx context.Context, userID string) (*UsageResponse, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildUsage(account), nil
}
