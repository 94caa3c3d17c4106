package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// IdentityKey is the echo context key holding the caller's member email
const IdentityKey = "identity"

// Identity returns the authenticated member email, or "" when the request is anonymous
func Identity(c echo.Context) string {
	identity, _ := c.Get(IdentityKey).(string)
	return identity
}

func unauthorized(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
		"error":   "UNAUTHENTICATED",
		"message": message,
	})
}

func bearerToken(c echo.Context) (string, *echo.HTTPError) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", unauthorized("Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", unauthorized("Authorization header must be in Bearer format")
	}
	return parts[1], nil
}
