package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/encounter-space/core/internal/models"
)

func TestParseEnvelopeValid(t *testing.T) {
	raw := []byte(`{
		"eventId": "evt_001",
		"eventType": "created",
		"timestamp": "2026-08-01T12:00:00Z",
		"user": {
			"userId": "user_42",
			"email": "Strahd@Barovia.example",
			"displayName": "Strahd",
			"metadata": {"campaign": "curse"}
		}
	}`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.EventID != "evt_001" {
		t.Errorf("EventID = %q, want evt_001", env.EventID)
	}
	if env.EventType != models.SyncEventCreated {
		t.Errorf("EventType = %q, want created", env.EventType)
	}
	want := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if !env.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", env.Timestamp, want)
	}
	if env.User.UserID != "user_42" {
		t.Errorf("UserID = %q, want user_42", env.User.UserID)
	}
	if env.User.Email == nil || *env.User.Email != "Strahd@Barovia.example" {
		t.Errorf("Email not preserved: %v", env.User.Email)
	}
	if env.User.Metadata["campaign"] != "curse" {
		t.Errorf("Metadata not preserved: %v", env.User.Metadata)
	}
}

func TestParseEnvelopeSchemaFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{"eventId": `},
		{"missing eventId", `{"eventType":"created","timestamp":"2026-08-01T12:00:00Z","user":{"userId":"u1"}}`},
		{"unknown event type", `{"eventId":"e1","eventType":"archived","timestamp":"2026-08-01T12:00:00Z","user":{"userId":"u1"}}`},
		{"missing timestamp", `{"eventId":"e1","eventType":"created","user":{"userId":"u1"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tc.raw))
			if !errors.Is(err, ErrInvalidEnvelope) {
				t.Fatalf("ParseEnvelope(%s) error = %v, want ErrInvalidEnvelope", tc.name, err)
			}
		})
	}
}

func TestParseEnvelopeMissingUserIDIsNotASchemaError(t *testing.T) {
	raw := []byte(`{"eventId":"e1","eventType":"updated","timestamp":"2026-08-01T12:00:00Z","user":{"displayName":"Mordenkainen"}}`)
	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.User.UserID != "" {
		t.Fatalf("UserID = %q, want empty", env.User.UserID)
	}
}

func TestPayloadMapPreservesWireShape(t *testing.T) {
	raw := []byte(`{"eventId":"e1","eventType":"updated","timestamp":"2026-08-01T12:00:00Z","user":{"userId":"u1","extra":"kept"}}`)
	payload := payloadMap(raw)
	if payload["userId"] != "u1" {
		t.Errorf("userId = %v, want u1", payload["userId"])
	}
	if payload["extra"] != "kept" {
		t.Errorf("unrecognized payload fields must be preserved in the audit record, got %v", payload)
	}
}

func TestPayloadMapGarbageBody(t *testing.T) {
	if payload := payloadMap([]byte("not json")); len(payload) != 0 {
		t.Fatalf("payloadMap on garbage = %v, want empty", payload)
	}
}

func TestFieldsFromPayloadRoundTrip(t *testing.T) {
	payload := models.JSONMap{
		"userId":      "u1",
		"displayName": "Tasha",
		"metadata":    map[string]interface{}{"hideous": "laughter"},
	}
	fields, err := fieldsFromPayload(payload)
	if err != nil {
		t.Fatalf("fieldsFromPayload failed: %v", err)
	}
	if fields.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", fields.UserID)
	}
	if fields.DisplayName == nil || *fields.DisplayName != "Tasha" {
		t.Errorf("DisplayName not restored: %v", fields.DisplayName)
	}
	if fields.Email != nil {
		t.Errorf("Email = %v, want nil for an absent field", fields.Email)
	}
	if fields.Metadata["hideous"] != "laughter" {
		t.Errorf("Metadata not restored: %v", fields.Metadata)
	}
}
