// Package token mints and verifies the signed, self-contained
// credentials carried by clients: a short-lived access token presented
// as a bearer header and a long-lived refresh token transported in a
// cookie. The two domains sign with independent secrets, so a
// compromise of one cannot forge tokens in the other.
package token

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"barhub/internal/policy"
)

// Domain selects which signing key and lifetime a token belongs to.
type Domain int

const (
	// DomainAccess tokens authorize individual requests.
	DomainAccess Domain = iota
	// DomainRefresh tokens mint new access tokens without a password.
	DomainRefresh
)

var (
	// ErrTokenInvalid covers signature, format, claim, and
	// cross-domain failures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired marks a structurally valid token past its
	// expiry. Callers at the HTTP boundary must collapse both errors
	// into the same response; the split exists for logging.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the verified claim set attached to a request after the
// gate accepts a token.
type Identity struct {
	Subject string
	Role    policy.Role
}

// Claims is the wire shape of both token domains.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Config carries the per-domain secrets and lifetimes. Secrets are
// injected here rather than read from process globals so multiple
// codecs can coexist in tests.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies tokens for both domains.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec validates cfg. Equal access and refresh secrets are
// rejected: shared keys would let a refresh-secret compromise forge
// access tokens.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: both signing secrets are required")
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}

	return &Codec{config: cfg, now: time.Now}, nil
}

// Mint signs a token for subject/role in the given domain. The role is
// captured at mint time: later role changes do not alter live tokens
// until they expire and are re-minted.
func (c *Codec) Mint(domain Domain, subject string, role policy.Role) (string, error) {
	if subject == "" {
		return "", errors.New("token: empty subject")
	}
	if !policy.Valid(role) {
		return "", errors.New("token: unknown role")
	}

	// The jti keeps two mints for the same subject within one second
	// from producing identical token strings.
	now := c.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl(domain))),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(domain))
}

// Verify checks signature, expiry, and claim shape under the given
// domain's secret. A token minted in the other domain fails with
// ErrTokenInvalid like any other forgery.
func (c *Codec) Verify(domain Domain, tokenStr string) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret(domain), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrTokenInvalid
	}

	role := policy.Role(claims.Role)
	if claims.Subject == "" || !policy.Valid(role) {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{Subject: claims.Subject, Role: role}, nil
}

// RefreshTTL exposes the refresh lifetime for cookie expiry.
func (c *Codec) RefreshTTL() time.Duration {
	return c.config.RefreshTTL
}

func (c *Codec) secret(domain Domain) []byte {
	if domain == DomainRefresh {
		return c.config.RefreshSecret
	}
	return c.config.AccessSecret
}

func (c *Codec) ttl(domain Domain) time.Duration {
	if domain == DomainRefresh {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}
