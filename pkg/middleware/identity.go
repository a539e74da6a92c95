package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// SetUserID stores the verified identity on the echo context
func SetUserID(c echo.Context, userID uuid.UUID) {
	c.Set(userIDKey, userID)
}

// UserID returns the identity set by the auth middleware
func UserID(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// RequireUser middleware: reject requests that reached the handler without an identity
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := UserID(c); !ok {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"error": "Authentication required",
			})
		}
		return next(c)
	}
}
