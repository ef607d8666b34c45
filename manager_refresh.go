package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nvellon/authcore/internal/audit"
	"github.com/nvellon/authcore/internal/metrics"
	"github.com/nvellon/authcore/session"
	"github.com/nvellon/authcore/token"
)

// Refresh rotates a refresh token: the presented secret is consumed
// atomically and a new secret plus a fresh access token come back on the
// same record. Presenting an already-consumed secret is treated as theft
// evidence: every session of the identity is revoked, its token version
// bumps, and the caller gets [ErrReplayDetected].
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}

	rid, secret, err := token.DecodeRefreshToken(refreshToken)
	if err != nil {
		m.metrics.Inc(metrics.RefreshFailure)
		return nil, ErrSessionNotFound
	}

	nextSecret, err := token.NewRefreshSecret()
	if err != nil {
		return nil, err
	}
	nextTokenID := token.NewID()

	rec, err := m.store.ConsumeAndReplace(
		ctx,
		rid.String(),
		token.HashRefreshSecret(secret),
		token.HashRefreshSecret(nextSecret),
		nextTokenID,
		m.config.Session.RefreshTTL,
	)
	if err != nil {
		var replay *session.ReplayError
		switch {
		case errors.As(err, &replay):
			m.cascadeReplay(ctx, replay)
			return nil, ErrReplayDetected
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
			m.metrics.Inc(metrics.RefreshFailure)
			m.emit(ctx, actionRefresh, "", audit.OutcomeFailure, audit.SeverityInfo, nil)
			return nil, ErrSessionNotFound
		case errors.Is(err, session.ErrCorruptRecord):
			m.metrics.Inc(metrics.RefreshFailure)
			return nil, ErrSessionNotFound
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	identity, err := m.provider.GetByID(ctx, rec.UserID)
	if err != nil || identity == nil {
		// Identity vanished under a live session: drop the record.
		_ = m.store.Remove(ctx, rec.RecordID)
		m.metrics.Inc(metrics.RefreshFailure)
		return nil, ErrSessionNotFound
	}

	if statusErr := accountStatusToError(identity.Status); statusErr != nil {
		_ = m.store.Remove(ctx, rec.RecordID)
		m.metrics.Inc(metrics.RefreshFailure)
		m.emit(ctx, actionRefresh, identity.ID, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": string(identity.Status)})
		return nil, statusErr
	}

	if rec.TokenVersion != identity.TokenVersion {
		// The session predates a mass invalidation that somehow left its
		// record behind. Close the gap now.
		_ = m.store.Remove(ctx, rec.RecordID)
		m.metrics.Inc(metrics.RefreshFailure)
		m.emit(ctx, actionRefresh, identity.ID, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": "stale_version"})
		return nil, ErrStaleTokenVersion
	}

	accessToken, err := m.codec.Issue(identity.ID, identity.Role, identity.TokenVersion, nextTokenID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m.metrics.Inc(metrics.RefreshSuccess)
	m.emit(ctx, actionRefresh, identity.ID, audit.OutcomeSuccess, audit.SeverityInfo, nil)

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     token.EncodeRefreshToken(rid, nextSecret),
		AccessExpiresAt:  now.Add(m.config.Token.AccessTTL),
		RefreshExpiresAt: time.Unix(rec.ExpiresAt, 0),
	}, nil
}

// cascadeReplay is the response to refresh-secret reuse: bump the token
// version so outstanding access tokens go stale, revoke every live
// session, and blocklist the access-token ids those sessions issued.
func (m *Manager) cascadeReplay(ctx context.Context, replay *session.ReplayError) {
	m.metrics.Inc(metrics.ReplayDetected)

	userID := replay.UserID
	detail := map[string]string{"stage": replay.Stage}

	if userID == "" {
		m.emit(ctx, actionReplayCascade, "", audit.OutcomeFailure, audit.SeverityAlert, detail)
		return
	}

	if _, err := m.provider.BumpTokenVersion(ctx, userID); err != nil {
		m.log.WithError(err).WithField("identity", userID).Error("token version bump failed during replay cascade")
	}

	revoked, err := m.store.RevokeAll(ctx, userID)
	if err != nil {
		m.log.WithError(err).WithField("identity", userID).Error("session sweep failed during replay cascade")
	}
	m.blocklistRecords(ctx, userID, revoked, "replay")

	detail["sessions_revoked"] = fmt.Sprintf("%d", len(revoked))
	m.metrics.Inc(metrics.SessionInvalidated)
	m.emit(ctx, actionReplayCascade, userID, audit.OutcomeFailure, audit.SeverityAlert, detail)
}

// blocklistRecords best-effort revokes the current access-token id of each
// swept session. The token-version bump already rejects them at Verify;
// the registry entries only make rejection immediate on replicas that have
// not yet observed the bump.
func (m *Manager) blocklistRecords(ctx context.Context, userID string, records []*session.Record, reason string) {
	expiry := time.Now().Add(m.config.Token.AccessTTL)
	for _, rec := range records {
		if rec.AccessTokenID == "" {
			continue
		}
		if err := m.registry.Revoke(ctx, rec.AccessTokenID, userID, reason, expiry); err != nil {
			m.log.WithError(err).Warn("access token blocklisting failed")
		} else {
			m.metrics.Inc(metrics.Revocations)
		}
	}
}
