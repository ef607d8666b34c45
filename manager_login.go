package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nvellon/authcore/internal/audit"
	"github.com/nvellon/authcore/internal/lockout"
	"github.com/nvellon/authcore/internal/metrics"
	"github.com/nvellon/authcore/session"
	"github.com/nvellon/authcore/token"
)

// Login verifies credentials and opens a new session. Unknown identifier
// and wrong password both return [ErrInvalidCredentials]; the lockout
// window, once crossed, rejects even correct credentials with
// [ErrAccountLocked] until it expires.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if err := m.validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ip := clientIPFromContext(ctx)

	if m.lockout != nil {
		if err := m.lockout.Check(ctx, creds.Identifier, ip); err != nil {
			if errors.Is(err, lockout.ErrLocked) {
				m.metrics.Inc(metrics.LoginLocked)
				m.emit(ctx, actionLogin, "", audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": "locked"})
				return nil, ErrAccountLocked
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	identity, err := m.provider.GetByIdentifier(ctx, creds.Identifier)
	if err != nil || identity == nil {
		// Burn a verification so an unknown identifier costs the same
		// as a wrong password.
		_, _ = m.hasher.Verify(creds.Password, "")
		return nil, m.loginFailure(ctx, creds.Identifier, ip, "unknown_identifier")
	}

	ok, err := m.hasher.Verify(creds.Password, identity.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, m.loginFailure(ctx, creds.Identifier, ip, "bad_password")
	}

	if statusErr := accountStatusToError(identity.Status); statusErr != nil {
		m.metrics.Inc(metrics.LoginFailure)
		m.emit(ctx, actionLogin, identity.ID, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": string(identity.Status)})
		return nil, statusErr
	}

	m.maybeUpgradeHash(ctx, identity, creds.Password)

	pair, err := m.openSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	if m.lockout != nil {
		if err := m.lockout.Reset(ctx, creds.Identifier, ip); err != nil {
			m.log.WithError(err).Warn("lockout reset failed after successful login")
		}
	}

	m.metrics.Inc(metrics.LoginSuccess)
	m.metrics.Inc(metrics.SessionCreated)
	m.emit(ctx, actionLogin, identity.ID, audit.OutcomeSuccess, audit.SeverityInfo, nil)

	return pair, nil
}

func (m *Manager) loginFailure(ctx context.Context, identifier, ip, reason string) error {
	m.metrics.Inc(metrics.LoginFailure)

	if m.lockout != nil {
		crossed, err := m.lockout.RecordFailure(ctx, identifier, ip)
		if err != nil {
			m.log.WithError(err).Warn("failed-login accounting unavailable")
		} else if crossed {
			m.metrics.Inc(metrics.LoginLocked)
			m.emit(ctx, actionLockout, "", audit.OutcomeFailure, audit.SeverityAlert, map[string]string{"identifier": identifier})
		}
	}

	m.emit(ctx, actionLogin, "", audit.OutcomeFailure, audit.SeverityInfo, map[string]string{"reason": reason})
	return ErrInvalidCredentials
}

// maybeUpgradeHash re-hashes a legacy or under-parameterized digest with
// the current scheme. Best effort: a failed persist leaves the old digest
// in place and the login still succeeds.
func (m *Manager) maybeUpgradeHash(ctx context.Context, identity *Identity, plaintext string) {
	if !m.config.Password.UpgradeOnLogin {
		return
	}

	needs, err := m.hasher.NeedsUpgrade(identity.PasswordHash)
	if err != nil || !needs {
		return
	}

	upgraded, err := m.hasher.Hash(plaintext)
	if err != nil {
		m.log.WithError(err).Warn("password hash upgrade failed")
		return
	}
	if err := m.provider.UpdatePasswordHash(ctx, identity.ID, upgraded); err != nil {
		m.log.WithError(err).Warn("password hash upgrade not persisted")
		return
	}
	identity.PasswordHash = upgraded
}

// openSession mints the token pair and persists the refresh record.
func (m *Manager) openSession(ctx context.Context, identity *Identity) (*TokenPair, error) {
	rid, err := token.NewRecordID()
	if err != nil {
		return nil, err
	}
	secret, err := token.NewRefreshSecret()
	if err != nil {
		return nil, err
	}
	tokenID := token.NewID()

	accessToken, err := m.codec.Issue(identity.ID, identity.Role, identity.TokenVersion, tokenID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refreshExpiry := now.Add(m.config.Session.RefreshTTL)

	rec := &session.Record{
		RecordID:      rid.String(),
		UserID:        identity.ID,
		Role:          identity.Role,
		TokenVersion:  identity.TokenVersion,
		RefreshHash:   token.HashRefreshSecret(secret),
		Fingerprint:   fingerprintFromContext(ctx),
		IP:            clientIPFromContext(ctx),
		AccessTokenID: tokenID,
		CreatedAt:     now.Unix(),
		ExpiresAt:     refreshExpiry.Unix(),
	}
	if err := m.store.Add(ctx, rec, m.config.Session.RefreshTTL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     token.EncodeRefreshToken(rid, secret),
		AccessExpiresAt:  now.Add(m.config.Token.AccessTTL),
		RefreshExpiresAt: refreshExpiry,
	}, nil
}
