package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// RecordID identifies one refresh-token record in the session store.
type RecordID [16]byte

const (
	refreshSecretSize   = 32
	refreshTokenRawSize = 16 + refreshSecretSize
)

// RefreshSecret is the high-entropy opaque half of a refresh token. Only
// its SHA-256 hash is ever persisted.
type RefreshSecret [refreshSecretSize]byte

// NewRecordID returns a random record id.
func NewRecordID() (RecordID, error) {
	var rid RecordID
	_, err := rand.Read(rid[:])
	return rid, err
}

// String renders the record id as compact base64url without padding.
func (r RecordID) String() string {
	return base64.RawURLEncoding.EncodeToString(r[:])
}

// ParseRecordID decodes a record id produced by [RecordID.String].
func ParseRecordID(s string) (RecordID, error) {
	var rid RecordID

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return rid, err
	}
	if len(raw) != len(rid) {
		return rid, errors.New("invalid record id size")
	}

	copy(rid[:], raw)
	return rid, nil
}

// NewRefreshSecret returns a fresh random refresh secret.
func NewRefreshSecret() (RefreshSecret, error) {
	var secret RefreshSecret
	_, err := rand.Read(secret[:])
	return secret, err
}

// HashRefreshSecret returns the SHA-256 digest stored in place of the
// secret itself.
func HashRefreshSecret(secret RefreshSecret) [32]byte {
	return sha256.Sum256(secret[:])
}

// EncodeRefreshToken packs record id + secret into the opaque string
// handed to clients.
func EncodeRefreshToken(rid RecordID, secret RefreshSecret) string {
	var raw [refreshTokenRawSize]byte
	copy(raw[:len(rid)], rid[:])
	copy(raw[len(rid):], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:])
}

// DecodeRefreshToken splits an opaque refresh token back into record id
// and secret. Structurally invalid tokens fail with a generic error.
func DecodeRefreshToken(tok string) (RecordID, RefreshSecret, error) {
	var (
		rid    RecordID
		secret RefreshSecret
	)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return rid, secret, errors.New("invalid refresh token")
	}
	if len(raw) != refreshTokenRawSize {
		return rid, secret, errors.New("invalid refresh token")
	}

	copy(rid[:], raw[:len(rid)])
	copy(secret[:], raw[len(rid):])

	return rid, secret, nil
}
