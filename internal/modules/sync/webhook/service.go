package webhook

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/models"
	"github.com/encounter-space/core/internal/pkg/signature"
)

const replayBatchSize = 200

// Service wires the verifier, the audit store and the reconciler into
// the ingestion pipeline: verify, store, reconcile, record the outcome.
type Service struct {
	db     *gorm.DB
	store  *Store
	rec    *Reconciler
	secret string
	log    *zap.Logger
}

func NewService(db *gorm.DB, secret string, log *zap.Logger) *Service {
	return &Service{
		db:     db,
		store:  NewStore(db),
		rec:    NewReconciler(db, log),
		secret: secret,
		log:    log,
	}
}

// Ingest processes one raw webhook delivery. Verification runs against
// the untouched body bytes before any parsing. Nothing is persisted for
// an unauthenticated or schema-invalid delivery; after the audit record
// lands, reconciliation failures are recorded on it instead of being
// surfaced to the provider.
func (s *Service) Ingest(ctx context.Context, raw []byte, sigHeader string) (*IngestResult, error) {
	switch result := signature.Verify(raw, s.secret, sigHeader); result {
	case signature.Valid:
	case signature.Missing:
		s.log.Warn("webhook rejected: no signature provided")
		return nil, fmt.Errorf("%w: no signature provided", ErrUnauthorized)
	case signature.NoSecret:
		s.log.Warn("webhook rejected: no webhook secret configured")
		return nil, fmt.Errorf("%w: verification unavailable", ErrUnauthorized)
	default:
		s.log.Warn("webhook rejected: signature mismatch")
		return nil, fmt.Errorf("%w: signature mismatch", ErrUnauthorized)
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	event := &models.SyncEventModel{
		EventID:        env.EventID,
		EventType:      env.EventType,
		EventTimestamp: env.Timestamp,
		ReceivedAt:     time.Now(),
		UserID:         env.User.UserID,
		Payload:        payloadMap(raw),
		Signature:      sigHeader,
		SignatureValid: true,
	}

	inserted, err := s.store.Append(ctx, event)
	if err != nil {
		return nil, err
	}
	if inserted == Duplicate {
		existing, err := s.store.FindByEventID(ctx, env.EventID)
		if err != nil {
			return nil, err
		}
		s.log.Info("duplicate delivery skipped",
			zap.String("event_id", env.EventID),
			zap.String("status", existing.Status),
		)
		return &IngestResult{
			EventID:   env.EventID,
			Duplicate: true,
			Status:    existing.Status,
		}, nil
	}

	outcome, err := s.reconcile(ctx, event.ID, env)
	if err != nil {
		return nil, err
	}

	return &IngestResult{
		EventID: env.EventID,
		Status:  statusForOutcome(outcome == ""),
		Outcome: string(outcome),
	}, nil
}

// reconcile applies the event and settles the audit record's status.
// An empty outcome with a nil error means the failure was recorded on
// the audit record; the delivery itself still succeeded.
func (s *Service) reconcile(ctx context.Context, auditID string, env *Envelope) (Outcome, error) {
	outcome, err := s.rec.Apply(ctx, env)
	if err != nil {
		s.log.Warn("reconciliation failed",
			zap.String("event_id", env.EventID),
			zap.Error(err),
		)
		if markErr := s.store.MarkFailed(ctx, auditID, err.Error()); markErr != nil {
			return "", markErr
		}
		return "", nil
	}
	if err := s.store.MarkProcessed(ctx, auditID); err != nil {
		return "", err
	}
	return outcome, nil
}

func statusForOutcome(failed bool) string {
	if failed {
		return models.SyncEventFailed
	}
	return models.SyncEventProcessed
}

// Replay re-runs reconciliation for failed audit records. Replayed
// events pass through the same ordering rules as live traffic, so a
// record that has since moved on is simply skipped as stale.
func (s *Service) Replay(ctx context.Context) (*ReplayReport, error) {
	failed, err := s.store.Failed(ctx, replayBatchSize)
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{Scanned: len(failed)}
	for i := range failed {
		ev := &failed[i]
		env, err := s.envelopeFromAudit(ev)
		if err != nil {
			report.StillFailed++
			continue
		}
		if _, err := s.rec.Apply(ctx, env); err != nil {
			report.StillFailed++
			if markErr := s.store.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				return report, markErr
			}
			continue
		}
		if err := s.store.MarkProcessed(ctx, ev.ID); err != nil {
			return report, err
		}
		report.Recovered++
	}

	if report.Scanned > 0 {
		s.log.Info("replay pass finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("recovered", report.Recovered),
			zap.Int("still_failed", report.StillFailed),
		)
	}
	return report, nil
}

func (s *Service) envelopeFromAudit(ev *models.SyncEventModel) (*Envelope, error) {
	fields, err := fieldsFromPayload(ev.Payload)
	if err != nil {
		return nil, err
	}
	if fields.UserID == "" && ev.UserID != "" {
		fields.UserID = ev.UserID
	}
	return &Envelope{
		EventID:   ev.EventID,
		EventType: ev.EventType,
		Timestamp: ev.EventTimestamp,
		User:      fields,
	}, nil
}

// ListFilter narrows the audit listing.
type ListFilter struct {
	Status string
	UserID string
}

// Events returns a filtered page of the audit trail, newest first.
func (s *Service) Events(ctx context.Context, filter ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&models.SyncEventModel{}).
		Order("received_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	return q
}

// Event fetches one audit record by its row id.
func (s *Service) Event(ctx context.Context, id string) (*models.SyncEventModel, error) {
	var ev models.SyncEventModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}
