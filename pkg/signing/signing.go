// Package signing authenticates messages exchanged between the server and
// the lock controller. A sealed message is the payload followed by '|' and
// the hex encoded HMAC-SHA256 of the payload under a shared secret.
package signing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrEmptySecret is returned by New when no shared secret is configured.
	ErrEmptySecret = errors.New("signing secret must not be empty")
	// ErrMalformedEnvelope is returned by Open when the message has no '|'
	// separator or the tag is not valid hex of the right length.
	ErrMalformedEnvelope = errors.New("malformed signed message")
	// ErrInvalidSignature is returned by Open when the tag does not match the payload.
	ErrInvalidSignature = errors.New("invalid message signature")
)

const separator = '|'

// Signer signs and verifies payloads with a single shared secret.
type Signer struct {
	secret []byte
}

// New creates a Signer. The secret is copied.
func New(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: bytes.Clone(secret)}, nil
}

// Sign returns the HMAC-SHA256 tag over the exact payload bytes.
func (s *Signer) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}

// Verify recomputes the tag and compares it in constant time.
func (s *Signer) Verify(payload, tag []byte) bool {
	return hmac.Equal(s.Sign(payload), tag)
}

// Seal appends the hex encoded tag to the payload.
func (s *Signer) Seal(payload []byte) []byte {
	tag := s.Sign(payload)
	out := make([]byte, 0, len(payload)+1+hex.EncodedLen(len(tag)))
	out = append(out, payload...)
	out = append(out, separator)
	return hex.AppendEncode(out, tag)
}

// Open splits a sealed message and returns the payload if the tag verifies.
func (s *Signer) Open(message []byte) ([]byte, error) {
	idx := bytes.LastIndexByte(message, separator)
	if idx < 0 {
		return nil, ErrMalformedEnvelope
	}
	payload, encoded := message[:idx], message[idx+1:]
	if len(encoded) != hex.EncodedLen(sha256.Size) {
		return nil, ErrMalformedEnvelope
	}
	tag := make([]byte, sha256.Size)
	if _, err := hex.Decode(tag, encoded); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if !s.Verify(payload, tag) {
		return nil, ErrInvalidSignature
	}
	return payload, nil
}
