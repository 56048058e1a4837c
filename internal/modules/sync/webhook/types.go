package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/encounter-space/core/internal/models"
)

var (
	// ErrUnauthorized covers missing, mismatched and unverifiable
	// signatures. Returned before anything is persisted.
	ErrUnauthorized = errors.New("webhook signature rejected")

	// ErrInvalidEnvelope covers malformed JSON and envelope-level schema
	// violations. Returned before anything is persisted.
	ErrInvalidEnvelope = errors.New("invalid webhook envelope")

	// ErrMissingUserID marks a payload that cannot be reconciled because
	// it does not identify an account. The audit record is still stored;
	// its status flips to failed.
	ErrMissingUserID = errors.New("payload missing userId")
)

// UserFields is the user sub-document of a lifecycle event. The shape
// varies by event type: created carries the full field set, updated
// carries only what changed, deleted usually carries just the id.
type UserFields struct {
	UserID      string                 `json:"userId"`
	Email       *string                `json:"email,omitempty"`
	DisplayName *string                `json:"displayName,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Envelope is the wire format of one webhook delivery.
type Envelope struct {
	EventID   string     `json:"eventId"`
	EventType string     `json:"eventType"`
	Timestamp time.Time  `json:"timestamp"`
	User      UserFields `json:"user"`
}

// ParseEnvelope decodes and schema-validates a raw delivery body.
// Payload-level problems (a missing userId) are not checked here; they
// are reconciliation failures, not schema failures.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvelope, err.Error())
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Envelope) validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: eventId is required", ErrInvalidEnvelope)
	}
	if !validEventType(e.EventType) {
		return fmt.Errorf("%w: unknown eventType %q", ErrInvalidEnvelope, e.EventType)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEnvelope)
	}
	return nil
}

func validEventType(t string) bool {
	switch t {
	case models.SyncEventCreated, models.SyncEventUpdated, models.SyncEventDeleted:
		return true
	}
	return false
}

// payloadMap re-extracts the user sub-document from the raw body so the
// audit record stores exactly what was transmitted, not a re-serialized
// struct.
func payloadMap(raw []byte) models.JSONMap {
	var wrapper struct {
		User models.JSONMap `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.User == nil {
		return models.JSONMap{}
	}
	return wrapper.User
}

// fieldsFromPayload rebuilds the typed user fields from a stored audit
// payload, used by the replay path.
func fieldsFromPayload(payload models.JSONMap) (UserFields, error) {
	var fields UserFields
	buf, err := json.Marshal(payload)
	if err != nil {
		return fields, err
	}
	if err := json.Unmarshal(buf, &fields); err != nil {
		return fields, err
	}
	return fields, nil
}

// IngestResult is the webhook endpoint's success body.
type IngestResult struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome,omitempty"`
}

// ReplayReport summarizes one pass over failed audit records.
type ReplayReport struct {
	Scanned     int `json:"scanned"`
	Recovered   int `json:"recovered"`
	StillFailed int `json:"still_failed"`
}
