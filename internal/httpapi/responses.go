package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"barhub/internal/store"
)

// Response messages are deliberately generic: internal distinctions
// (unknown email vs wrong password, expired vs forged token) are
// collapsed before they reach a client.
const (
	msgUnauthorized       = "unauthorized"
	msgForbidden          = "forbidden"
	msgInvalidCredentials = "invalid credentials"
	msgInvalidRequest     = "invalid request"
	msgNotFound           = "not found"
	msgDuplicateEmail     = "email already registered"
	msgTooManyAttempts    = "too many attempts"
	msgServerError        = "server error"
)

type errorBody struct {
	Message string `json:"message"`
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorBody{Message: message})
}

// respondStoreError maps storage failures that handlers share.
func respondStoreError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return respondError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, store.ErrDuplicateEmail):
		return respondError(c, http.StatusConflict, msgDuplicateEmail)
	default:
		return respondError(c, http.StatusInternalServerError, msgServerError)
	}
}
