package authcore

import (
	"context"
	"fmt"

	"github.com/nvellon/authcore/internal/audit"
	"github.com/nvellon/authcore/internal/metrics"
)

// Verify authenticates an access token and authorizes it against the
// given role check, in that order: signature and expiry, then the
// revocation registry, then identity status and token version, then the
// role requirement. A registry outage fails closed with
// [ErrStoreUnavailable] rather than admitting a possibly revoked token.
func (m *Manager) Verify(ctx context.Context, accessToken string, check RoleCheck) (*Principal, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}

	claims, err := m.codec.Verify(accessToken)
	if err != nil {
		m.metrics.Inc(metrics.VerifyRejected)
		return nil, ErrTokenInvalid
	}

	revoked, err := m.registry.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if revoked {
		m.metrics.Inc(metrics.VerifyRejected)
		m.emit(ctx, actionVerify, claims.Subject, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": "revoked"})
		return nil, ErrTokenRevoked
	}

	identity, err := m.provider.GetByID(ctx, claims.Subject)
	if err != nil || identity == nil {
		m.metrics.Inc(metrics.VerifyRejected)
		return nil, ErrTokenInvalid
	}

	if statusErr := accountStatusToError(identity.Status); statusErr != nil {
		m.metrics.Inc(metrics.VerifyRejected)
		m.emit(ctx, actionVerify, identity.ID, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": string(identity.Status)})
		return nil, statusErr
	}

	if claims.TokenVersion != identity.TokenVersion {
		m.metrics.Inc(metrics.VerifyRejected)
		m.emit(ctx, actionVerify, identity.ID, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": "stale_version"})
		return nil, ErrStaleTokenVersion
	}

	// Role checks run against the token's role claim, not the identity
	// record: a role change takes effect when tokens are reissued, and a
	// demotion that must bite immediately pairs with LogoutAll.
	if !m.roleAllowed(claims.Role, check) {
		m.metrics.Inc(metrics.VerifyDenied)
		m.emit(ctx, actionVerify, identity.ID, audit.OutcomeDenied, audit.SeverityWarn, map[string]string{"role": claims.Role})
		return nil, ErrPermissionDenied
	}

	principal := &Principal{
		ID:           identity.ID,
		Role:         claims.Role,
		TokenVersion: claims.TokenVersion,
		TokenID:      claims.ID,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return principal, nil
}

func (m *Manager) roleAllowed(userRole string, check RoleCheck) bool {
	if len(check.Exact) > 0 {
		return m.roles.Exact(userRole, check.Exact...)
	}
	if check.Minimum != "" {
		return m.roles.AtLeast(userRole, check.Minimum)
	}
	return true
}

// RevokeToken blocklists a single access token out of band, for
// administrative invalidation without a full LogoutAll.
func (m *Manager) RevokeToken(ctx context.Context, accessToken, reason string) error {
	if m == nil {
		return ErrManagerNotReady
	}

	claims, err := m.codec.Verify(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	expiry := claims.ExpiresAt.Time
	if err := m.registry.Revoke(ctx, claims.ID, claims.Subject, reason, expiry); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	m.metrics.Inc(metrics.Revocations)
	m.emit(ctx, actionLogout, claims.Subject, audit.OutcomeSuccess, audit.SeverityWarn, map[string]string{"reason": reason})
	return nil
}
