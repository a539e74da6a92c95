package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-stats/pkg/jwt"
	pkgmw "github.com/johnquangdev/meeting-stats/pkg/middleware"
)

// TokenVerifier validates access tokens issued by the authentication service
type TokenVerifier interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// EchoAuth returns an Echo middleware that validates the JWT and sets
// "user_id" (uuid.UUID) into the Echo context
func EchoAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractToken(c.Request(), false)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "Missing authorization token",
				})
			}

			claims, err := verifier.ValidateAccessToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "Invalid or expired token",
				})
			}

			pkgmw.SetUserID(c, claims.UserID)
			return next(c)
		}
	}
}

// ExtractToken reads the bearer token from the Authorization header, then the
// access_token cookie, then, when allowQuery is set, the token query parameter.
// Browsers cannot set headers on a WebSocket upgrade, hence the query fallback.
func ExtractToken(r *http.Request, allowQuery bool) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	// Try cookie as fallback
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}
