package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Header is the signature header the identity provider sends with every
// sync webhook delivery.
const Header = "X-Webhook-Signature-256"

const prefix = "sha256="

// Result classifies a verification attempt. Missing and NoSecret are
// kept distinct from Mismatch so the caller can log them separately.
type Result int

const (
	Valid Result = iota
	Missing
	Mismatch
	NoSecret
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Missing:
		return "no signature provided"
	case Mismatch:
		return "signature mismatch"
	case NoSecret:
		return "no webhook secret configured"
	default:
		return "unknown"
	}
}

// Verify checks header against the HMAC-SHA256 of body under secret.
// The body must be the exact bytes as transmitted; verifying a
// re-serialized document is incorrect because key order and whitespace
// are not stable across encoders. An unconfigured secret rejects
// everything rather than silently accepting.
func Verify(body []byte, secret, header string) Result {
	if strings.TrimSpace(secret) == "" {
		return NoSecret
	}
	sig := strings.TrimSpace(header)
	if sig == "" {
		return Missing
	}
	if !strings.HasPrefix(sig, prefix) {
		return Mismatch
	}

	expected, err := hex.DecodeString(strings.ToLower(strings.TrimPrefix(sig, prefix)))
	if err != nil {
		return Mismatch
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return Mismatch
	}
	return Valid
}

// Sign computes the header value for body under secret, in the same
// sha256=<hex> format Verify expects. Used by tests and the legacy
// importer's self checks.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}
