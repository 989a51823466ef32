package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/addislearn/learning-platform/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the authenticated user's ID and role into the request context.
// The provided secret must match the one used when issuing access tokens.
// Protected routes wrapped with this middleware can read the caller via
// `c.Get("user_id").(uint64)` and `c.Get("role").(string)`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Verify signature, expiry and signing method in one place so
			// that handlers never see an unvalidated token.
			claims, err := utils.VerifyToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Store typed values; handlers assert without re-parsing.
			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// UserID reads the authenticated user's ID set by JWTAuth. It returns zero
// when the request was not authenticated.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// Role reads the authenticated user's role set by JWTAuth.
func Role(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}
