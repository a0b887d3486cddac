package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUserID returns the user id the Auth middleware stored on the context.
// An empty value means the middleware did not run for this route.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}
