package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	env.token = "" // exercise the public routes without credentials

	rec := env.do(t, http.MethodPost, "/api/auth/register", credentialsRequest{
		Email:    "new@example.com",
		Password: "a long enough password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg tokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reg))
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "new@example.com", reg.Email)

	rec = env.do(t, http.MethodPost, "/api/auth/login", credentialsRequest{
		Email:    "new@example.com",
		Password: "a long enough password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login tokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))

	env.token = login.Token
	me := env.do(t, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, me.Code)
	var profile struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(me.Body).Decode(&profile))
	assert.Equal(t, "new@example.com", profile.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/auth/register", credentialsRequest{
		Email:    testEmail,
		Password: "a long enough password",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/auth/register", credentialsRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "password")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/auth/login", credentialsRequest{
		Email:    testEmail,
		Password: "wrong password entirely",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
