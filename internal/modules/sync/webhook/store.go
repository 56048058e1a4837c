package webhook

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/encounter-space/core/internal/models"
)

// InsertResult reports whether an audit insert landed or was skipped
// because the event id was already stored.
type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
)

// Store owns the append-only sync_events audit collection. Rows are
// inserted once; status and error are the only columns touched after
// that.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append inserts one audit record. A duplicate event id is not an
// error: the insert is skipped at the unique index and the caller is
// told so. Redelivered events must not double-process.
func (s *Store) Append(ctx context.Context, ev *models.SyncEventModel) (InsertResult, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(ev)
	if res.Error != nil {
		return Inserted, res.Error
	}
	if res.RowsAffected == 0 {
		return Duplicate, nil
	}
	return Inserted, nil
}

// FindByEventID looks up an audit record by the provider's event id.
func (s *Store) FindByEventID(ctx context.Context, eventID string) (*models.SyncEventModel, error) {
	var ev models.SyncEventModel
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

// MarkProcessed flips a stored record to processed and clears any
// previous failure reason.
func (s *Store) MarkProcessed(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.SyncEventProcessed, "")
}

// MarkFailed flips a record to failed with the reason for operators.
func (s *Store) MarkFailed(ctx context.Context, id string, reason string) error {
	return s.setStatus(ctx, id, models.SyncEventFailed, reason)
}

func (s *Store) setStatus(ctx context.Context, id, status, reason string) error {
	return s.db.WithContext(ctx).
		Model(&models.SyncEventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": status,
			"error":  reason,
		}).Error
}

// Failed returns the oldest failed audit records, up to limit, for the
// replay pass.
func (s *Store) Failed(ctx context.Context, limit int) ([]models.SyncEventModel, error) {
	var events []models.SyncEventModel
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SyncEventFailed).
		Order("event_timestamp ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// OlderThan returns audit records received before the cutoff, used by
// the export snapshot.
func (s *Store) OlderThan(ctx context.Context, cutoff time.Time, batch int, afterID string) ([]models.SyncEventModel, error) {
	q := s.db.WithContext(ctx).
		Where("received_at < ?", cutoff).
		Order("id ASC").
		Limit(batch)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	var events []models.SyncEventModel
	err := q.Find(&events).Error
	return events, err
}
