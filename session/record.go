package session

import (
	"encoding/hex"
	"strconv"
)

// Record is one live refresh-token entry for an identity: one per
// device/client. The refresh secret itself is never stored, only its
// SHA-256 hash.
type Record struct {
	RecordID      string
	UserID        string
	Role          string
	TokenVersion  uint64
	RefreshHash   [32]byte
	Fingerprint   string
	IP            string
	AccessTokenID string // jti of the most recently issued access token
	CreatedAt     int64  // unix seconds
	ExpiresAt     int64  // unix seconds
}

// Redis hash field names. Kept short: one hash per live session.
const (
	fieldUserID       = "uid"
	fieldRole         = "role"
	fieldTokenVersion = "tv"
	fieldRefreshHash  = "rh"
	fieldFingerprint  = "fp"
	fieldIP           = "ip"
	fieldAccessID     = "jti"
	fieldCreatedAt    = "ca"
	fieldExpiresAt    = "ea"
)

func (r *Record) fields() map[string]interface{} {
	return map[string]interface{}{
		fieldUserID:       r.UserID,
		fieldRole:         r.Role,
		fieldTokenVersion: strconv.FormatUint(r.TokenVersion, 10),
		fieldRefreshHash:  hex.EncodeToString(r.RefreshHash[:]),
		fieldFingerprint:  r.Fingerprint,
		fieldIP:           r.IP,
		fieldAccessID:     r.AccessTokenID,
		fieldCreatedAt:    strconv.FormatInt(r.CreatedAt, 10),
		fieldExpiresAt:    strconv.FormatInt(r.ExpiresAt, 10),
	}
}

func recordFromMap(recordID string, m map[string]string) (*Record, error) {
	rec := &Record{
		RecordID:      recordID,
		UserID:        m[fieldUserID],
		Role:          m[fieldRole],
		Fingerprint:   m[fieldFingerprint],
		IP:            m[fieldIP],
		AccessTokenID: m[fieldAccessID],
	}

	if rec.UserID == "" {
		return nil, ErrCorruptRecord
	}

	if raw := m[fieldTokenVersion]; raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, ErrCorruptRecord
		}
		rec.TokenVersion = v
	}
	if raw := m[fieldRefreshHash]; raw != "" {
		decoded, err := hex.DecodeString(raw)
		if err != nil || len(decoded) != len(rec.RefreshHash) {
			return nil, ErrCorruptRecord
		}
		copy(rec.RefreshHash[:], decoded)
	}
	if raw := m[fieldCreatedAt]; raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, ErrCorruptRecord
		}
		rec.CreatedAt = v
	}
	if raw := m[fieldExpiresAt]; raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, ErrCorruptRecord
		}
		rec.ExpiresAt = v
	}

	return rec, nil
}
