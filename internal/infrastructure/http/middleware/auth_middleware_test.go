package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-stats/pkg/jwt"
	pkgmw "github.com/johnquangdev/meeting-stats/pkg/middleware"
)

func TestEchoAuth(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute)
	userID := uuid.New()
	token, err := manager.GenerateAccessToken(userID, "")
	require.NoError(t, err)

	e := echo.New()
	var seen uuid.UUID
	handler := EchoAuth(manager)(func(c echo.Context) error {
		seen, _ = pkgmw.UserID(c)
		return c.NoContent(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: token}) }, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/api/meeting-stats", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			require.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, userID, seen)
			}
		})
	}
}

func TestExtractToken_Query(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/stats?token=abc", nil)

	assert.Empty(t, ExtractToken(req, false))
	assert.Equal(t, "abc", ExtractToken(req, true))
}
