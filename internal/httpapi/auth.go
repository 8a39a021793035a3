package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"barhub/internal/policy"
	"barhub/internal/session"
)

const (
	refreshCookieName = "refresh_token"
	// The browser only attaches the refresh token to auth endpoints;
	// no other route ever sees it.
	refreshCookiePath = "/auth"
)

// AuthHandler exposes the session lifecycle over HTTP: register,
// login, refresh, logout. The access token travels in JSON bodies and
// bearer headers; the refresh token travels only in an HttpOnly,
// SameSite=Strict cookie.
type AuthHandler struct {
	sessions      *session.Manager
	refreshTTL    time.Duration
	secureCookies bool
	log           *zap.Logger
}

// NewAuthHandler builds an AuthHandler. secureCookies should be true
// in production so the refresh cookie is HTTPS-only.
func NewAuthHandler(sessions *session.Manager, refreshTTL time.Duration, secureCookies bool, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		sessions:      sessions,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
		log:           log,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=DEV ADMIN BARTENDER STUDENT"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// accessTokenResponse carries the access token only. The refresh
// token is never serialized in a body.
type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register handles POST /auth/register. The route is gated to DEV and
// ADMIN callers; the role policy additionally blocks assigning a role
// above the caller's own.
func (h *AuthHandler) Register(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	id, err := h.sessions.Register(c.Request().Context(), actor, session.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     policy.Role(req.Role),
	})
	if err != nil {
		if errors.Is(err, session.ErrRoleNotAllowed) {
			return respondError(c, http.StatusForbidden, msgForbidden)
		}
		return respondStoreError(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{ID: id})
}

// Login handles POST /auth/login: access token in the body, refresh
// token in the cookie. Unknown email and wrong password produce
// byte-identical responses.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	pair, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password, c.RealIP())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			return respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
		case errors.Is(err, session.ErrLoginThrottled):
			return respondError(c, http.StatusTooManyRequests, msgTooManyAttempts)
		default:
			h.log.Error("login failed internally", zap.Error(err))
			return respondError(c, http.StatusInternalServerError, msgServerError)
		}
	}

	c.SetCookie(h.refreshCookie(pair.RefreshToken, h.refreshTTL))
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Refresh handles POST /auth/refresh. The refresh token arrives only
// through the cookie channel; a missing or rejected cookie is the
// same generic 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	access, err := h.sessions.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, session.ErrRefreshInvalid) {
			return respondError(c, http.StatusUnauthorized, msgUnauthorized)
		}
		h.log.Error("refresh failed internally", zap.Error(err))
		return respondError(c, http.StatusInternalServerError, msgServerError)
	}

	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: access})
}

// Logout handles POST /auth/logout by overwriting the refresh cookie
// with an empty, already-expired value. There is no server-side
// registry to revoke; tokens already issued run out their clocks.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.expiredRefreshCookie())
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) refreshCookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) expiredRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
