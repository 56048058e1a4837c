package webhook

import (
	"testing"

	"github.com/encounter-space/core/internal/models"
)

func TestDecideTransitionTable(t *testing.T) {
	cases := []struct {
		name      string
		eventType string
		state     recordState
		want      action
	}{
		{"created on missing record inserts", models.SyncEventCreated, stateMissing, actionInsert},
		{"created on older active record backfills", models.SyncEventCreated, stateActiveOlder, actionBackfill},
		{"created on newer active record backfills", models.SyncEventCreated, stateActiveNewer, actionBackfill},
		{"created on deleted record backfills", models.SyncEventCreated, stateDeleted, actionBackfill},

		{"updated on missing record inserts", models.SyncEventUpdated, stateMissing, actionInsert},
		{"updated on older active record patches", models.SyncEventUpdated, stateActiveOlder, actionPatch},
		{"updated on newer active record is dropped", models.SyncEventUpdated, stateActiveNewer, actionNone},
		{"updated on deleted record patches without resurrecting", models.SyncEventUpdated, stateDeleted, actionPatch},

		{"deleted on missing record is a no-op", models.SyncEventDeleted, stateMissing, actionNone},
		{"deleted on older active record soft-deletes", models.SyncEventDeleted, stateActiveOlder, actionSoftDelete},
		{"deleted on newer active record soft-deletes", models.SyncEventDeleted, stateActiveNewer, actionSoftDelete},
		{"deleted on deleted record soft-deletes idempotently", models.SyncEventDeleted, stateDeleted, actionSoftDelete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decide(tc.eventType, tc.state)
			if err != nil {
				t.Fatalf("decide(%q, %v) returned error: %v", tc.eventType, tc.state, err)
			}
			if got != tc.want {
				t.Fatalf("decide(%q, %v) = %v, want %v", tc.eventType, tc.state, got, tc.want)
			}
		})
	}
}

func TestDecideRejectsUnknownEventType(t *testing.T) {
	for _, state := range []recordState{stateMissing, stateActiveOlder, stateActiveNewer, stateDeleted} {
		if _, err := decide("promoted", state); err == nil {
			t.Fatalf("decide(\"promoted\", %v) accepted an unknown event type", state)
		}
	}
}

func TestRecordStateString(t *testing.T) {
	pairs := map[recordState]string{
		stateMissing:     "missing",
		stateActiveOlder: "active_older",
		stateActiveNewer: "active_newer",
		stateDeleted:     "deleted",
	}
	for state, want := range pairs {
		if got := state.String(); got != want {
			t.Errorf("state %d = %q, want %q", state, got, want)
		}
	}
}
