package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"barhub/internal/policy"
	"barhub/internal/token"
)

// contextKeyIdentity stores the verified token.Identity on the echo
// context after the gate accepts a request.
const contextKeyIdentity = "barhub.identity"

// Gate is the per-request pipeline stage that authenticates the
// bearer token and optionally authorizes the resolved role. It is
// stateless and never touches storage.
type Gate struct {
	codec *token.Codec
	log   *zap.Logger
}

// NewGate builds a Gate. log may be nil.
func NewGate(codec *token.Codec, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{codec: codec, log: log}
}

// Authenticate verifies the Authorization bearer token under the
// access domain and attaches the resolved identity to the request
// context. Missing, malformed, invalid, and expired tokens all get
// the same generic 401 so the response carries no oracle; the
// distinction is logged.
func (g *Gate) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return respondError(c, http.StatusUnauthorized, msgUnauthorized)
			}

			id, err := g.codec.Verify(token.DomainAccess, raw)
			if err != nil {
				g.log.Debug("access token rejected",
					zap.Bool("expired", errors.Is(err, token.ErrTokenExpired)),
					zap.String("path", c.Path()),
				)
				return respondError(c, http.StatusUnauthorized, msgUnauthorized)
			}

			c.Set(contextKeyIdentity, id)
			return next(c)
		}
	}
}

// RequireRole rejects authenticated callers whose role is outside the
// allowed set. It must run after Authenticate.
func (g *Gate) RequireRole(allowed ...policy.Role) echo.MiddlewareFunc {
	set := policy.NewRoleSet(allowed...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return respondError(c, http.StatusUnauthorized, msgUnauthorized)
			}
			if !set.Contains(id.Role) {
				return respondError(c, http.StatusForbidden, msgForbidden)
			}
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity attached by Authenticate.
func CurrentIdentity(c echo.Context) (token.Identity, bool) {
	id, ok := c.Get(contextKeyIdentity).(token.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := header[len(prefix):]
	if raw == "" {
		return "", false
	}
	return raw, true
}
