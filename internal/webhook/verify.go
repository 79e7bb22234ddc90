// Package webhook implements the inbound side of the Relay adapter:
// signature verification, event parsing, and the HTTP handler.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxTimestampSkew is the replay-protection window. Timestamps further
// than this from the local clock are rejected in either direction.
const MaxTimestampSkew = 5 * time.Minute

// Verification failure reasons. Every failure is terminal for the request
// and surfaces as a 401; none is ever retried.
var (
	ErrMissingCredentials = errors.New("missing signature or timestamp header")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrTimestampTooOld    = errors.New("timestamp too old (replay protection)")
	ErrTimestampInFuture  = errors.New("timestamp in the future")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrMalformedSignature = errors.New("malformed signature")
)

// VerifySignature checks the HMAC-SHA256 signature of a webhook request.
//
// Expected headers:
//
//	X-Webhook-Signature: [sha256=]<hex digest>
//	X-Webhook-Timestamp: <unix epoch seconds>
//
// The signed payload is "{timestamp}.{rawBody}" where rawBody is the exact
// bytes received on the wire. Returns nil when the signature is valid.
func VerifySignature(rawBody []byte, signatureHeader, timestampHeader, signingSecret string) error {
	return verifySignatureAt(rawBody, signatureHeader, timestampHeader, signingSecret, time.Now())
}

func verifySignatureAt(rawBody []byte, signatureHeader, timestampHeader, signingSecret string, now time.Time) error {
	if signatureHeader == "" || timestampHeader == "" {
		return ErrMissingCredentials
	}

	timestampSec, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	age := now.Sub(time.Unix(timestampSec, 0))
	if age > MaxTimestampSkew {
		return ErrTimestampTooOld
	}
	if age < -MaxTimestampSkew {
		return ErrTimestampInFuture
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte(timestampHeader))
	mac.Write([]byte{'.'})
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	providedHex := strings.TrimPrefix(signatureHeader, "sha256=")
	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return ErrMalformedSignature
	}
	// hmac.Equal is constant-time and treats a length mismatch as unequal
	// without revealing where the comparison diverged.
	if !hmac.Equal(expected, provided) {
		return ErrSignatureMismatch
	}
	return nil
}
