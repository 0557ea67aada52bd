package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key", 15*time.Minute, 7*24*time.Hour)
}

func okHandler(captured **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if claims, ok := GetUserFromContext(r.Context()); ok {
				*captured = claims
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-123", "ana@example.com", auth.RoleCustomer, "")
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(okHandler(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-123", captured.UserID)
	assert.Equal(t, "ana@example.com", captured.Email)
	assert.Equal(t, auth.RoleCustomer, captured.Role)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-456", "admin@store.test", auth.RoleAdmin, "store-1")
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(okHandler(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-456", captured.UserID)
	assert.Equal(t, "store-1", captured.StoreID)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(newTestJWTService())(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	AuthMiddleware(newTestJWTService())(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 1*time.Millisecond, 7*24*time.Hour)
	token, _, err := jwtService.GenerateAccessToken("user-123", "ana@example.com", auth.RoleCustomer, "")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongSignature(t *testing.T) {
	issuer := auth.NewJWTService("secret-1", 15*time.Minute, 7*24*time.Hour)
	verifier := auth.NewJWTService("secret-2", 15*time.Minute, 7*24*time.Hour)

	token, _, err := issuer.GenerateAccessToken("user-123", "ana@example.com", auth.RoleCustomer, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(verifier)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	jwtService := newTestJWTService()
	cookieToken, _, _ := jwtService.GenerateAccessToken("cookie-user", "cookie@example.com", auth.RoleCustomer, "")
	headerToken, _, _ := jwtService.GenerateAccessToken("header-user", "header@example.com", auth.RoleAdmin, "store-1")

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(okHandler(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "cookie-user", captured.UserID)
}

func withClaims(req *http.Request, claims *auth.Claims) *http.Request {
	ctx := context.WithValue(req.Context(), UserContextKey, claims)
	return req.WithContext(ctx)
}

func TestRequireRole_HasRole(t *testing.T) {
	req := withClaims(httptest.NewRequest(http.MethodGet, "/payments/1", nil),
		&auth.Claims{UserID: "user-123", Role: auth.RoleAdmin, StoreID: "store-1"})
	rec := httptest.NewRecorder()

	RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_HasAlternateRole(t *testing.T) {
	req := withClaims(httptest.NewRequest(http.MethodGet, "/payments/1", nil),
		&auth.Claims{UserID: "root", Role: auth.RoleSuperAdmin})
	rec := httptest.NewRecorder()

	RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	req := withClaims(httptest.NewRequest(http.MethodGet, "/payments/1", nil),
		&auth.Claims{UserID: "user-123", Role: auth.RoleCustomer})
	rec := httptest.NewRecorder()

	RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestRequireRole_NoClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payments/1", nil)
	rec := httptest.NewRecorder()

	RequireRole(auth.RoleAdmin)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserFromContext(t *testing.T) {
	claims := &auth.Claims{UserID: "user-123", Role: auth.RoleCustomer}
	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	got, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	got, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}
