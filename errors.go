package authcore

import "errors"

var (
	// ErrInvalidCredentials covers unknown identifier and wrong password
	// alike, so callers cannot distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while the failed-login lockout window is active.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountDisabled is returned for identities with status Disabled.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountDeleted is returned for identities with status Deleted.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrTokenInvalid covers every access-token verification failure:
	// bad signature, expired, malformed, missing claims.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned for structurally valid tokens whose id
	// is in the revocation registry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrStaleTokenVersion is returned when a token or session carries a
	// version older than the identity's current one.
	ErrStaleTokenVersion = errors.New("stale token version")
	// ErrPermissionDenied means the caller authenticated but the role
	// check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrReplayDetected means an already-consumed refresh token was
	// presented again. All of the identity's sessions are gone by the
	// time the caller sees it.
	ErrReplayDetected = errors.New("refresh token reuse detected")
	// ErrSessionNotFound is returned when a refresh token points at no
	// live session record.
	ErrSessionNotFound = errors.New("session not found")
	// ErrValidation is returned for malformed input before any backend work.
	ErrValidation = errors.New("invalid request")
	// ErrPasswordPolicy is returned when a new password fails policy checks.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new password matches the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrIdentityNotFound is returned by provider-backed lookups that
	// are not credential checks (credential checks collapse into
	// ErrInvalidCredentials instead).
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrManagerNotReady is returned when the Manager is used before New
	// completed or after Close.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrStoreUnavailable wraps backend (Redis) failures surfaced by any
	// operation.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Kind groups the sentinel errors into coarse classes so transports can
// map them to status codes without enumerating sentinels.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindRevoked
	KindReplay
	KindValidation
)

// KindOf classifies err by its sentinel. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrReplayDetected):
		return KindReplay
	case errors.Is(err, ErrTokenRevoked):
		return KindRevoked
	case errors.Is(err, ErrPermissionDenied):
		return KindAuthorization
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrAccountDeleted),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrStaleTokenVersion),
		errors.Is(err, ErrSessionNotFound):
		return KindAuthentication
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse):
		return KindValidation
	default:
		return KindInternal
	}
}

// IsAuthenticationFailure reports whether err should surface to clients
// as a generic 401-class failure. Replay and revocation are included:
// they carry more internal detail but deserve no richer client response.
func IsAuthenticationFailure(err error) bool {
	switch KindOf(err) {
	case KindAuthentication, KindRevoked, KindReplay:
		return true
	default:
		return false
	}
}
