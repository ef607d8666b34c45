package authcore

import "context"

type clientIPContextKey struct{}
type fingerprintContextKey struct{}
type principalContextKey struct{}

// Principal is the authenticated caller Verify hands back.
type Principal struct {
	ID           string
	Role         string
	TokenVersion uint64
	TokenID      string
	ExpiresAt    int64 // unix seconds
}

// WithClientIP attaches the caller's IP address to ctx. The Manager uses
// it for per-IP lockout accounting and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithDeviceFingerprint attaches an opaque device fingerprint to ctx. It
// is stored on the session record and surfaced in audit detail; the
// Manager does not interpret it.
func WithDeviceFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, fingerprintContextKey{}, fingerprint)
}

// WithPrincipal attaches a verified Principal to ctx, for handlers
// downstream of a Verify call.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom extracts the Principal set by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}

	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func fingerprintFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	fingerprint, _ := ctx.Value(fingerprintContextKey{}).(string)
	return fingerprint
}
