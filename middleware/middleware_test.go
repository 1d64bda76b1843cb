package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tasklog-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	jwtService := services.NewJWTService("secret")
	handler := JWTAuthMiddleware(jwtService, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	jwtService := services.NewJWTService("secret")
	handler := JWTAuthMiddleware(jwtService, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer bogus")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddlewarePutsClaimsInContext(t *testing.T) {
	jwtService := services.NewJWTService("secret")
	token, err := jwtService.GenerateAuthToken("507f1f77bcf86cd799439011", "x@y.com")
	require.NoError(t, err)

	var seen *services.Claims
	handler := JWTAuthMiddleware(jwtService, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "507f1f77bcf86cd799439011", seen.UserID)
	assert.Equal(t, "x@y.com", seen.Email)
}
