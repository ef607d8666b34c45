package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/nvellon/authcore/internal/audit"
	"github.com/nvellon/authcore/internal/metrics"
	"github.com/nvellon/authcore/token"
)

// Logout closes one session: the access token's id goes on the
// revocation blocklist for its remaining lifetime and the refresh record
// is deleted. Logout is idempotent; a second call with the same tokens
// succeeds without effect. The refresh token must belong to the same
// identity as the access token.
func (m *Manager) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if m == nil {
		return ErrManagerNotReady
	}

	claims, err := m.codec.Verify(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	expiry := time.Now().Add(m.config.Token.AccessTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	if err := m.registry.Revoke(ctx, claims.ID, claims.Subject, "logout", expiry); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	m.metrics.Inc(metrics.Revocations)

	if refreshToken != "" {
		rid, _, decodeErr := token.DecodeRefreshToken(refreshToken)
		if decodeErr == nil {
			recordID := rid.String()
			rec, getErr := m.store.Get(ctx, recordID)
			// Only the session owner may close the session. Records that
			// are already gone need no work; logout stays idempotent.
			if getErr == nil && rec.UserID == claims.Subject {
				if err := m.store.Remove(ctx, recordID); err != nil {
					return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
				}
				m.metrics.Inc(metrics.SessionInvalidated)
			}
		}
	}

	m.metrics.Inc(metrics.Logout)
	m.emit(ctx, actionLogout, claims.Subject, audit.OutcomeSuccess, audit.SeverityInfo, nil)
	return nil
}

// LogoutAll force-closes every session of an identity: the token version
// bumps so all outstanding access tokens go stale, every refresh record
// is deleted, and the swept sessions' access-token ids are blocklisted.
func (m *Manager) LogoutAll(ctx context.Context, identityID string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if identityID == "" {
		return fmt.Errorf("%w: empty identity id", ErrValidation)
	}

	if _, err := m.provider.BumpTokenVersion(ctx, identityID); err != nil {
		return err
	}

	revoked, err := m.store.RevokeAll(ctx, identityID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	m.blocklistRecords(ctx, identityID, revoked, "logout_all")

	m.metrics.Inc(metrics.LogoutAll)
	m.metrics.Inc(metrics.SessionInvalidated)
	m.emit(ctx, actionLogoutAll, identityID, audit.OutcomeSuccess, audit.SeverityWarn, map[string]string{
		"sessions_revoked": fmt.Sprintf("%d", len(revoked)),
	})
	return nil
}
