// Package session orchestrates the credential lifecycle: login mints
// the access/refresh pair, refresh re-mints access tokens, register
// creates principals under the role policy. No session state lives on
// the server; clients hold everything through the tokens themselves.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barhub/internal/password"
	"barhub/internal/policy"
	"barhub/internal/ratelimit"
	"barhub/internal/store"
	"barhub/internal/token"
)

var (
	// ErrInvalidCredentials is returned for unknown email and wrong
	// password alike; callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshInvalid covers every refresh failure mode.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrLoginThrottled means the rate limiter rejected the attempt.
	ErrLoginThrottled = errors.New("too many login attempts")
	// ErrRoleNotAllowed means the requested role assignment violates
	// the role policy.
	ErrRoleNotAllowed = errors.New("role assignment not allowed")
)

// TokenPair is the result of a successful login. The refresh token is
// for the cookie channel only and must never appear in a JSON body.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries a registration request. Role is optional and
// defaults to STUDENT.
type RegisterInput struct {
	Email    string
	Password string
	Role     policy.Role
}

// Manager wires the credential verifier, token codec, principal store,
// and optional login throttle.
type Manager struct {
	principals store.PrincipalStore
	hasher     *password.Hasher
	codec      *token.Codec
	limiter    *ratelimit.Limiter
	log        *zap.Logger
}

// NewManager builds a Manager. limiter may be nil (throttling
// disabled); log may be nil.
func NewManager(principals store.PrincipalStore, hasher *password.Hasher, codec *token.Codec, limiter *ratelimit.Limiter, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		principals: principals,
		hasher:     hasher,
		codec:      codec,
		limiter:    limiter,
		log:        log,
	}
}

// Login verifies the credentials and mints both tokens. The failure
// path is uniform: unknown email, wrong password, and empty input all
// return ErrInvalidCredentials, and unknown email still pays the full
// hashing cost so response timing does not enumerate accounts. ip is
// optional and only feeds the throttle.
func (m *Manager) Login(ctx context.Context, email, pass, ip string) (*TokenPair, error) {
	email = normalizeEmail(email)

	if err := m.limiter.Check(ctx, email, ip); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			m.log.Warn("login throttled", zap.String("ip", ip))
			return nil, ErrLoginThrottled
		}
		return nil, fmt.Errorf("login throttle check: %w", err)
	}

	if email == "" || pass == "" {
		return nil, m.failLogin(ctx, email, ip, "empty_input")
	}

	p, err := m.principals.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("principal lookup: %w", err)
		}
		m.hasher.VerifyDummy(ctx, pass)
		return nil, m.failLogin(ctx, email, ip, "unknown_identifier")
	}

	if !m.hasher.Verify(ctx, pass, p.PasswordHash) {
		return nil, m.failLogin(ctx, email, ip, "password_mismatch")
	}
	pass = ""

	if err := m.limiter.Reset(ctx, email, ip); err != nil {
		m.log.Warn("login throttle reset failed", zap.Error(err))
	}

	access, err := m.codec.Mint(token.DomainAccess, p.ID, p.Role)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := m.codec.Mint(token.DomainRefresh, p.ID, p.Role)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	m.log.Info("login succeeded",
		zap.String("subject", p.ID),
		zap.String("role", string(p.Role)),
	)

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh verifies refreshToken under the refresh domain and mints a
// new access token with the same subject and role. The refresh token
// itself is not rotated; it stays valid until its own expiry.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	id, err := m.codec.Verify(token.DomainRefresh, refreshToken)
	if err != nil {
		// Expired vs tampered matters for the log, not the caller.
		m.log.Debug("refresh rejected",
			zap.Bool("expired", errors.Is(err, token.ErrTokenExpired)),
		)
		return "", ErrRefreshInvalid
	}

	access, err := m.codec.Mint(token.DomainAccess, id.Subject, id.Role)
	if err != nil {
		return "", fmt.Errorf("mint access token: %w", err)
	}

	m.log.Debug("access token refreshed", zap.String("subject", id.Subject))
	return access, nil
}

// Register hashes the password and persists a new principal. The
// actor is the already-authenticated caller; assigning a role above
// the actor's own fails with ErrRoleNotAllowed. Duplicate emails
// surface as store.ErrDuplicateEmail.
func (m *Manager) Register(ctx context.Context, actor token.Identity, in RegisterInput) (string, error) {
	role := in.Role
	if role == "" {
		role = policy.RoleStudent
	}
	if !policy.Valid(role) || !policy.CanAssignRole(actor.Role, role) {
		m.log.Warn("registration role rejected",
			zap.String("actor", actor.Subject),
			zap.String("actor_role", string(actor.Role)),
			zap.String("requested_role", string(role)),
		)
		return "", ErrRoleNotAllowed
	}

	hash, err := m.hasher.Hash(ctx, in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	p := &store.Principal{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := m.principals.Create(ctx, p); err != nil {
		return "", err
	}

	m.log.Info("principal registered",
		zap.String("subject", p.ID),
		zap.String("role", string(p.Role)),
		zap.String("registered_by", actor.Subject),
	)
	return p.ID, nil
}

func (m *Manager) failLogin(ctx context.Context, email, ip, reason string) error {
	if err := m.limiter.RecordFailure(ctx, email, ip); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			m.log.Warn("login throttled", zap.String("ip", ip))
			return ErrLoginThrottled
		}
		m.log.Warn("login throttle record failed", zap.Error(err))
	}
	// The reason stays in the log; the caller sees one uniform error.
	m.log.Debug("login failed", zap.String("reason", reason))
	return ErrInvalidCredentials
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
