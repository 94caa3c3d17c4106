package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/models"
)

// ClaimsKey holds the parsed JWT claims in the echo context
const ClaimsKey = "claims"

// JWTAuthMiddleware checks for a valid HS256 token and exposes its email as the request identity.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, herr := bearerToken(c)
			if herr != nil {
				return herr
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					return unauthorized("Invalid token signature")
				}
				return unauthorized("Invalid token")
			}
			if !token.Valid || claims.Email == "" {
				return unauthorized("Invalid token")
			}

			c.Set(ClaimsKey, claims)
			c.Set(IdentityKey, claims.Email)

			return next(c)
		}
	}
}
