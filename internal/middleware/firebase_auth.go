package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/pkg/logger"
)

// TokenVerifier is satisfied by *auth.Client
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUIDKey holds the verified Firebase UID in the echo context
const FirebaseUIDKey = "firebaseUID"

// FirebaseAuthMiddleware verifies Firebase ID tokens. The token's email claim
// becomes the request identity.
func FirebaseAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, herr := bearerToken(c)
			if herr != nil {
				return herr
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				logger.Log.Debugf("firebase token rejected: %v", err)
				return unauthorized("Invalid or expired ID token")
			}

			email, _ := token.Claims["email"].(string)
			if email == "" {
				return unauthorized("ID token carries no email")
			}

			c.Set(FirebaseUIDKey, token.UID)
			c.Set(IdentityKey, email)

			return next(c)
		}
	}
}
