package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rifat-dv/meshly/backend/internal/apperrors"
)

// getUserIDFromContext returns the authenticated user's ID, set by the auth
// middleware. Zero means unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}

// errorBody is the wire shape of a service error. Clients switch on kind and
// code, never on the message text.
type errorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
}

// respondError translates a service error into the structured error
// response. Raw storage errors never reach the client.
func respondError(c echo.Context, err error) error {
	kind := apperrors.KindOf(err)
	body := errorBody{
		Kind: kind,
		Code: apperrors.CodeOf(err),
	}
	if e, ok := err.(*apperrors.Error); ok && kind != apperrors.KindInternal {
		body.Message = e.Message
	} else {
		body.Message = "something went wrong"
	}
	return c.JSON(apperrors.HTTPStatus(kind), echo.Map{"error": body})
}

// respondOK wraps a success payload in the standard envelope.
func respondOK(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
}
