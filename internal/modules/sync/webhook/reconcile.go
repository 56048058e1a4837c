package webhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/encounter-space/core/internal/models"
)

// recordState classifies the account projection relative to one
// incoming event. Ordering is judged by the event's own timestamp
// against the stored updated_at, never by arrival order.
type recordState int

const (
	stateMissing recordState = iota
	stateActiveOlder // stored updated_at < event timestamp
	stateActiveNewer // stored updated_at >= event timestamp
	stateDeleted
)

func (s recordState) String() string {
	switch s {
	case stateMissing:
		return "missing"
	case stateActiveOlder:
		return "active_older"
	case stateActiveNewer:
		return "active_newer"
	case stateDeleted:
		return "deleted"
	}
	return "unknown"
}

// action is the reconciliation decision for one event.
type action int

const (
	actionNone action = iota
	actionInsert
	actionPatch
	actionBackfill
	actionSoftDelete
)

// Outcome is the business result of applying one event. Outcomes are
// values, not errors; a skipped stale update is a success.
type Outcome string

const (
	OutcomeCreated    Outcome = "created"
	OutcomeUpdated    Outcome = "updated"
	OutcomeBackfilled Outcome = "backfilled"
	OutcomeDeleted    Outcome = "deleted"
	OutcomeSkipped    Outcome = "skipped_stale"
	OutcomeNoop       Outcome = "noop"
)

// decide is the transition table: event type x record state -> action.
// It is deliberately free of storage concerns so the table can be
// checked exhaustively.
func decide(eventType string, state recordState) (action, error) {
	switch eventType {
	case models.SyncEventCreated:
		if state == stateMissing {
			return actionInsert, nil
		}
		// A late created event never regresses fields; it may only
		// fill blanks left by an update-synthesized record.
		return actionBackfill, nil

	case models.SyncEventUpdated:
		switch state {
		case stateMissing:
			// First-seen update creates the record. Tolerates the
			// provider delivering updated before created.
			return actionInsert, nil
		case stateActiveNewer:
			return actionNone, nil
		default:
			// Patches apply to soft-deleted records too, without
			// resurrecting them. The conditional write re-checks the
			// ordering at commit time.
			return actionPatch, nil
		}

	case models.SyncEventDeleted:
		if state == stateMissing {
			return actionNone, nil
		}
		return actionSoftDelete, nil
	}

	return actionNone, errors.New("unknown event type " + eventType)
}

// Reconciler applies verified events to the accounts projection.
type Reconciler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReconciler(db *gorm.DB, log *zap.Logger) *Reconciler {
	return &Reconciler{db: db, log: log}
}

// Apply runs one event through the transition table and executes the
// resulting mutation. The returned error is reserved for storage
// failures and unprocessable payloads; every legitimate business result
// comes back as an Outcome.
func (r *Reconciler) Apply(ctx context.Context, env *Envelope) (Outcome, error) {
	if env.User.UserID == "" {
		return "", ErrMissingUserID
	}

	record, state, err := r.classify(ctx, env)
	if err != nil {
		return "", err
	}

	act, err := decide(env.EventType, state)
	if err != nil {
		return "", err
	}

	log := r.log.With(
		zap.String("event_id", env.EventID),
		zap.String("event_type", env.EventType),
		zap.String("user_id", env.User.UserID),
	)

	switch act {
	case actionNone:
		if state == stateActiveNewer {
			log.Warn("skipped late-arriving event",
				zap.Time("event_timestamp", env.Timestamp),
				zap.Time("record_updated_at", record.UpdatedAt),
			)
			return OutcomeSkipped, nil
		}
		log.Info("no record to reconcile, nothing to do")
		return OutcomeNoop, nil

	case actionInsert:
		return r.insert(ctx, env, log)

	case actionPatch:
		return r.patch(ctx, env, log)

	case actionBackfill:
		return r.backfill(ctx, env, record, log)

	case actionSoftDelete:
		return r.softDelete(ctx, env, log)
	}

	return OutcomeNoop, nil
}

// classify loads the projection, soft-deleted included, and places it
// in the transition table's state space.
func (r *Reconciler) classify(ctx context.Context, env *Envelope) (*models.AccountModel, recordState, error) {
	var record models.AccountModel
	err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ?", env.User.UserID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, stateMissing, nil
	}
	if err != nil {
		return nil, stateMissing, err
	}
	if record.DeletedAt.Valid {
		return &record, stateDeleted, nil
	}
	if !record.UpdatedAt.Before(env.Timestamp) {
		return &record, stateActiveNewer, nil
	}
	return &record, stateActiveOlder, nil
}

func (r *Reconciler) insert(ctx context.Context, env *Envelope, log *zap.Logger) (Outcome, error) {
	account := models.AccountModel{
		UserID:   env.User.UserID,
		Metadata: models.JSONMap{},
	}
	if env.User.Email != nil {
		account.Email = strings.ToLower(*env.User.Email)
	}
	if env.User.DisplayName != nil {
		account.DisplayName = *env.User.DisplayName
	}
	if env.User.Metadata != nil {
		account.Metadata = env.User.Metadata
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&account)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent delivery created the record first. Fall back to
		// the conditional patch so this event's fields still land if
		// they are newer.
		return r.patch(ctx, env, log)
	}

	log.Info("account created from event")
	return OutcomeCreated, nil
}

// patch applies the fields present in the payload behind a single
// conditional update. The ordering check lives in the WHERE clause so
// two racing updates cannot lose each other's writes. Email is
// immutable after creation and is never patched.
func (r *Reconciler) patch(ctx context.Context, env *Envelope, log *zap.Logger) (Outcome, error) {
	changes := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if env.User.DisplayName != nil {
		changes["display_name"] = *env.User.DisplayName
	}
	if env.User.Metadata != nil {
		changes["metadata"] = models.JSONMap(env.User.Metadata)
	}

	res := r.db.WithContext(ctx).Unscoped().
		Model(&models.AccountModel{}).
		Where("user_id = ? AND updated_at < ?", env.User.UserID, env.Timestamp).
		Updates(changes)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		log.Warn("skipped late-arriving event",
			zap.Time("event_timestamp", env.Timestamp),
		)
		return OutcomeSkipped, nil
	}

	log.Info("account updated from event")
	return OutcomeUpdated, nil
}

// backfill fills fields a synthesized record is still missing, without
// advancing updated_at: a late created event must not win ordering
// against updates that already applied.
func (r *Reconciler) backfill(ctx context.Context, env *Envelope, record *models.AccountModel, log *zap.Logger) (Outcome, error) {
	changes := map[string]interface{}{}
	if record.Email == "" && env.User.Email != nil && *env.User.Email != "" {
		changes["email"] = strings.ToLower(*env.User.Email)
	}
	if record.DisplayName == "" && env.User.DisplayName != nil && *env.User.DisplayName != "" {
		changes["display_name"] = *env.User.DisplayName
	}
	if len(record.Metadata) == 0 && len(env.User.Metadata) > 0 {
		changes["metadata"] = models.JSONMap(env.User.Metadata)
	}
	if len(changes) == 0 {
		log.Info("record already complete, created event is a no-op")
		return OutcomeNoop, nil
	}

	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.AccountModel{}).
		Where("user_id = ?", env.User.UserID).
		UpdateColumns(changes).Error
	if err != nil {
		return "", err
	}

	log.Info("account backfilled from late created event")
	return OutcomeBackfilled, nil
}

// softDelete marks the record deleted at the event's effective time.
// The guard on deleted_at makes a second delete a clean no-op and
// keeps the original deletion time.
func (r *Reconciler) softDelete(ctx context.Context, env *Envelope, log *zap.Logger) (Outcome, error) {
	effective := env.Timestamp
	if effective.IsZero() {
		effective = time.Now()
	}

	res := r.db.WithContext(ctx).Unscoped().
		Model(&models.AccountModel{}).
		Where("user_id = ? AND deleted_at IS NULL", env.User.UserID).
		UpdateColumn("deleted_at", effective)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		log.Info("account already deleted, delete event is a no-op")
		return OutcomeNoop, nil
	}

	log.Info("account soft-deleted from event", zap.Time("deleted_at", effective))
	return OutcomeDeleted, nil
}
