package signature

import (
	"strings"
	"testing"
)

const testSecret = "roll-for-initiative"

func TestVerifyValid(t *testing.T) {
	body := []byte(`{"eventId":"evt_1","eventType":"created"}`)
	header := Sign(body, testSecret)

	if !strings.HasPrefix(header, "sha256=") {
		t.Fatalf("signature %q missing sha256= prefix", header)
	}
	if got := Verify(body, testSecret, header); got != Valid {
		t.Fatalf("Verify = %v, want Valid", got)
	}
}

func TestVerifySingleByteTamper(t *testing.T) {
	body := []byte(`{"eventId":"evt_1","eventType":"created"}`)
	header := Sign(body, testSecret)

	for i := range body {
		tampered := append([]byte(nil), body...)
		tampered[i] ^= 0x01
		if Verify(tampered, testSecret, header) == Valid {
			t.Fatalf("byte %d: tampered body still verified", i)
		}
	}
}

func TestVerifyMissingHeader(t *testing.T) {
	if got := Verify([]byte("x"), testSecret, ""); got != Missing {
		t.Fatalf("Verify = %v, want Missing", got)
	}
	if got := Verify([]byte("x"), testSecret, "   "); got != Missing {
		t.Fatalf("Verify = %v, want Missing", got)
	}
}

func TestVerifyFailsClosedWithoutSecret(t *testing.T) {
	body := []byte("x")
	header := Sign(body, "")
	if got := Verify(body, "", header); got != NoSecret {
		t.Fatalf("Verify = %v, want NoSecret", got)
	}
}

func TestVerifyMismatchCases(t *testing.T) {
	body := []byte("payload")
	tests := []struct {
		name   string
		header string
	}{
		{name: "wrong digest", header: "sha256=" + strings.Repeat("ab", 32)},
		{name: "not hex", header: "sha256=zzzz"},
		{name: "missing prefix", header: strings.TrimPrefix(Sign(body, testSecret), "sha256=")},
		{name: "wrong secret", header: Sign(body, "some-other-secret")},
	}
	for _, tt := range tests {
		if got := Verify(body, testSecret, tt.header); got != Mismatch {
			t.Fatalf("%s: Verify = %v, want Mismatch", tt.name, got)
		}
	}
}

func TestVerifyAcceptsUppercaseHex(t *testing.T) {
	body := []byte("payload")
	header := Sign(body, testSecret)
	upper := "sha256=" + strings.ToUpper(strings.TrimPrefix(header, "sha256="))
	if got := Verify(body, testSecret, upper); got != Valid {
		t.Fatalf("Verify = %v, want Valid for uppercase hex", got)
	}
}
