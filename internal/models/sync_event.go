package models

import "time"

// Sync event processing status.
const (
	SyncEventStored    = "stored"
	SyncEventProcessed = "processed"
	SyncEventFailed    = "failed"
)

// Sync event types delivered by the identity provider.
const (
	SyncEventCreated = "created"
	SyncEventUpdated = "updated"
	SyncEventDeleted = "deleted"
)

// SyncEventModel is the append-only audit record of one received webhook
// delivery. EventID is the provider's id and doubles as the idempotency
// key: a redelivered event must not create a second row. Payload,
// Signature and EventID are never mutated after insert; Status is the
// only field that transitions (stored → processed | failed).
type SyncEventModel struct {
	Base
	EventID        string    `json:"event_id"        gorm:"uniqueIndex;not null"`
	EventType      string    `json:"event_type"      gorm:"not null"`
	EventTimestamp time.Time `json:"event_timestamp" gorm:"index"` // source-side time, not receipt time
	ReceivedAt     time.Time `json:"received_at"`
	UserID         string    `json:"user_id"         gorm:"index"`
	Payload        JSONMap   `json:"payload"         gorm:"serializer:json"`
	Signature      string    `json:"signature"       gorm:"type:text"`
	SignatureValid bool      `json:"signature_valid"`
	Status         string    `json:"status"          gorm:"index;default:stored"`
	Error          string    `json:"error,omitempty" gorm:"type:text"`
}

func (SyncEventModel) TableName() string { return "sync_events" }
