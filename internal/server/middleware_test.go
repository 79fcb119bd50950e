package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	config := common.NewDefaultConfig()
	user := &models.User{ID: 42, Username: "asha"}

	token, err := signJWT(user, config)
	require.NoError(t, err)

	claims, err := validateJWT(token, []byte(config.Auth.JWTSecret))
	require.NoError(t, err)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "asha", claims["username"])
	assert.Equal(t, "corebank-server", claims["iss"])
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	config := common.NewDefaultConfig()
	token, err := signJWT(&models.User{ID: 42, Username: "asha"}, config)
	require.NoError(t, err)

	_, err = validateJWT(token, []byte("a different secret"))
	require.Error(t, err)
}

func TestJWTRejectsExpired(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Auth.TokenExpiry = "-1h"

	token, err := signJWT(&models.User{ID: 42, Username: "asha"}, config)
	require.NoError(t, err)

	_, err = validateJWT(token, []byte(config.Auth.JWTSecret))
	require.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	_, err := validateJWT("not.a.token", []byte("secret"))
	require.Error(t, err)
}

func TestCorrelationIDMiddleware(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// A caller-supplied request ID is echoed back.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Correlation-ID"))

	// Absent one, the server mints its own.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestCORSPreflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/transactions", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthzContextRoundTrip(t *testing.T) {
	authz := &models.AuthzContext{User: &models.User{ID: 42, Username: "asha"}}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)

	assert.Nil(t, authzFrom(req.Context()))
	ctx := withAuthz(req.Context(), authz)
	assert.Equal(t, authz, authzFrom(ctx))
}
