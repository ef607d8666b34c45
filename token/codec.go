package token

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the access-token signature algorithm.
type SigningMethod string

const (
	// MethodEd25519 signs with Ed25519 (default).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
)

// ErrInvalid is the only error Verify returns for a token that fails any
// check: bad signature, expired, malformed, missing claims, wrong issuer.
// Collapsing the causes denies callers (and attackers) a signal about
// where verification failed.
var ErrInvalid = errors.New("invalid access token")

// Config holds codec key material and validation policy.
type Config struct {
	AccessTTL     time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

// Codec mints and verifies signed access tokens. Access tokens are
// self-contained: identity id (sub), role, token version, unique id (jti),
// and the registered time claims. Nothing about them is persisted.
type Codec struct {
	config Config
}

// AccessClaims is the decoded payload of a verified access token.
type AccessClaims struct {
	Role         string `json:"role"`
	TokenVersion uint64 `json:"tv"`
	jwt.RegisteredClaims
}

// NewCodec validates the configuration and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Codec{config: cfg}, nil
}

// NewID returns a fresh unique token id (jti claim).
func NewID() string {
	return uuid.NewString()
}

// Issue signs an access token for the identity. tokenID becomes the jti
// claim; callers that need to revoke the token later must retain it.
func (c *Codec) Issue(identityID, roleName string, tokenVersion uint64, tokenID string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Role:         roleName,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(c.method(), claims)

	signKey, err := c.signKey()
	if err != nil {
		return "", err
	}

	return tok.SignedString(signKey)
}

// Verify checks signature, expiry, and required claims. All failures
// collapse to [ErrInvalid].
func (c *Codec) Verify(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.verifyKey()
	})
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := tok.Claims.(*AccessClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalid
	}
	if claims.IssuedAt != nil && c.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(time.Now().Add(c.config.MaxFutureIAT)) {
			return nil, ErrInvalid
		}
	}

	return claims, nil
}

// AccessTTL exposes the configured access-token lifetime, used by callers
// computing revocation-entry expiry bounds.
func (c *Codec) AccessTTL() time.Duration {
	return c.config.AccessTTL
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(c.config.PrivateKey)
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		if len(c.config.PublicKey) > 0 {
			return parseEdPublicKey(c.config.PublicKey)
		}
		priv, err := parseEdPrivateKey(c.config.PrivateKey)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
