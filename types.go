package authcore

import (
	"context"
	"time"
)

// AccountStatus is the lifecycle state of an identity.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusDisabled AccountStatus = "disabled"
	StatusDeleted  AccountStatus = "deleted"
)

func accountStatusToError(status AccountStatus) error {
	switch status {
	case StatusActive:
		return nil
	case StatusDisabled:
		return ErrAccountDisabled
	case StatusDeleted:
		return ErrAccountDeleted
	default:
		// Unknown statuses fail closed.
		return ErrAccountDisabled
	}
}

// Identity is the Manager's view of one account. The caller owns
// persistence; the Manager never writes identities except through the
// IdentityProvider methods.
type Identity struct {
	ID           string
	Identifier   string // login name: email, username, ...
	PasswordHash string // PHC argon2id string, or a legacy bcrypt hash
	Role         string
	Status       AccountStatus
	TokenVersion uint64
}

// IdentityProvider is the caller-supplied identity backend.
//
// BumpTokenVersion must increment atomically and return the new version;
// concurrent bumps may skip values but must never repeat one.
type IdentityProvider interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	BumpTokenVersion(ctx context.Context, id string) (uint64, error)
}

// Credentials is the Login input.
type Credentials struct {
	Identifier string `validate:"required,min=1,max=320"`
	Password   string `validate:"required,min=1,max=1024"`
}

// TokenPair is what a successful Login or Refresh hands back.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RoleCheck describes the authorization requirement for Verify. Zero
// value means "any authenticated identity". Minimum and Exact are
// mutually exclusive; when both are set, Exact wins.
type RoleCheck struct {
	Minimum string   // role hierarchy floor, inclusive
	Exact   []string // exact-match set, no hierarchy
}

// MinRole requires at least the given role in the hierarchy.
func MinRole(role string) RoleCheck {
	return RoleCheck{Minimum: role}
}

// AnyOf requires the caller's role to be exactly one of the given roles.
func AnyOf(roles ...string) RoleCheck {
	return RoleCheck{Exact: roles}
}
