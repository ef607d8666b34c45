package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvellon/authcore/internal/audit"
	"github.com/nvellon/authcore/internal/metrics"
	"github.com/nvellon/authcore/password"
)

// ChangePassword verifies the current password, persists a hash of the
// new one, and then force-closes every session of the identity. The new
// password must satisfy policy and differ from the current one. Callers
// re-authenticate after a successful change.
func (m *Manager) ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if identityID == "" {
		return fmt.Errorf("%w: empty identity id", ErrValidation)
	}

	identity, err := m.provider.GetByID(ctx, identityID)
	if err != nil || identity == nil {
		return ErrIdentityNotFound
	}

	if statusErr := accountStatusToError(identity.Status); statusErr != nil {
		return statusErr
	}

	ok, err := m.hasher.Verify(currentPassword, identity.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		m.emit(ctx, actionPasswordChange, identityID, audit.OutcomeFailure, audit.SeverityWarn, map[string]string{"reason": "bad_password"})
		return ErrInvalidCredentials
	}

	if newPassword == currentPassword {
		return ErrPasswordReuse
	}

	newHash, err := m.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrPolicy) {
			return ErrPasswordPolicy
		}
		return err
	}

	if err := m.provider.UpdatePasswordHash(ctx, identityID, newHash); err != nil {
		return err
	}

	// Every existing session was opened under the old password; none of
	// them survive the change.
	if err := m.LogoutAll(ctx, identityID); err != nil {
		m.log.WithError(err).WithField("identity", identityID).Error("session sweep failed after password change")
		return err
	}

	m.metrics.Inc(metrics.PasswordChange)
	m.emit(ctx, actionPasswordChange, identityID, audit.OutcomeSuccess, audit.SeverityWarn, nil)
	return nil
}
