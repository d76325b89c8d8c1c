package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/auth"

	"github.com/labstack/echo/v4"
)

const claimsKey = "claims"

// JWTAuth middleware validates the bearer token and stores its claims.
// A missing or invalid token is a 401.
func JWTAuth(authService *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing authorization header"})
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(tokenString) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid authorization header format"})
			}

			claims, err := authService.ValidateToken(strings.TrimSpace(tokenString))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			}

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
			c.Set("user_role", claims.Role)

			return next(c)
		}
	}
}

// RequireAdmin rejects authenticated callers that are not admins with a 403.
func RequireAdmin(authService *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(claimsKey).(*auth.TokenClaims)
			if !authService.IsAdmin(claims) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Claims returns the token claims JWTAuth stored on the context.
func Claims(c echo.Context) *auth.TokenClaims {
	claims, _ := c.Get(claimsKey).(*auth.TokenClaims)
	return claims
}
