package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"barhub/internal/password"
	"barhub/internal/policy"
	"barhub/internal/store"
)

// UsersHandler serves the principal management routes. Listing and
// deletion are restricted to user managers at the routing layer;
// per-record reads and updates additionally consult the role policy so
// an ADMIN can never reach a DEV record.
type UsersHandler struct {
	principals store.PrincipalStore
	hasher     *password.Hasher
	log        *zap.Logger
}

// NewUsersHandler builds a UsersHandler.
func NewUsersHandler(principals store.PrincipalStore, hasher *password.Hasher, log *zap.Logger) *UsersHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UsersHandler{principals: principals, hasher: hasher, log: log}
}

// userView is the only shape a principal ever takes on the wire. The
// password hash has no JSON representation anywhere in the package.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserView(p *store.Principal) userView {
	return userView{
		ID:        p.ID,
		Email:     p.Email,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type updateUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=DEV ADMIN BARTENDER STUDENT"`
}

// List handles GET /users.
func (h *UsersHandler) List(c echo.Context) error {
	principals, err := h.principals.List(c.Request().Context())
	if err != nil {
		return respondStoreError(c, err)
	}

	views := make([]userView, 0, len(principals))
	for i := range principals {
		views = append(views, toUserView(&principals[i]))
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /users/:id. Principals always see themselves; user
// managers see any record that does not outrank them.
func (h *UsersHandler) Get(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	target, err := h.principals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}
	if !policy.CanActOnPrincipal(actor.Subject, actor.Role, target.ID, target.Role) {
		return respondError(c, http.StatusForbidden, msgForbidden)
	}

	return c.JSON(http.StatusOK, toUserView(target))
}

// Update handles PUT /users/:id. Email and password changes follow the
// per-record rule; role changes go through the stricter mutation rule,
// which rejects self role changes outright.
func (h *UsersHandler) Update(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if req.Email == "" && req.Password == "" && req.Role == "" {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx := c.Request().Context()
	target, err := h.principals.FindByID(ctx, c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	if req.Role != "" {
		newRole := policy.Role(req.Role)
		if !policy.CanMutateRole(actor.Subject, actor.Role, target.ID, target.Role, newRole) {
			return respondError(c, http.StatusForbidden, msgForbidden)
		}
		target.Role = newRole
	}
	if !policy.CanActOnPrincipal(actor.Subject, actor.Role, target.ID, target.Role) {
		return respondError(c, http.StatusForbidden, msgForbidden)
	}

	if req.Email != "" {
		target.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Password != "" {
		hash, err := h.hasher.Hash(ctx, req.Password)
		if err != nil {
			h.log.Error("password hash failed", zap.Error(err))
			return respondError(c, http.StatusInternalServerError, msgServerError)
		}
		target.PasswordHash = hash
	}

	if err := h.principals.Update(ctx, target); err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusOK, toUserView(target))
}

// Delete handles DELETE /users/:id. The route gate already requires a
// user manager; the policy check here keeps ADMIN callers off DEV
// records.
func (h *UsersHandler) Delete(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	ctx := c.Request().Context()
	target, err := h.principals.FindByID(ctx, c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}
	if !policy.CanActOnPrincipal(actor.Subject, actor.Role, target.ID, target.Role) {
		return respondError(c, http.StatusForbidden, msgForbidden)
	}

	if err := h.principals.Delete(ctx, target.ID); err != nil {
		return respondStoreError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
