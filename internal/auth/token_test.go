package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/auth"
)

const testSecret = "unit-test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	token, err := auth.IssueToken(testSecret, "user-1", "Alice", "alice@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := auth.VerifyToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := auth.IssueToken(testSecret, "user-1", "Alice", "alice@example.com", time.Hour)
	require.NoError(t, err)

	_, err = auth.VerifyToken("other-secret", token)
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	token, err := auth.IssueToken(testSecret, "user-1", "Alice", "alice@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = auth.VerifyToken(testSecret, token)
	assert.Error(t, err)
}

func TestVerifyEmptyToken(t *testing.T) {
	_, err := auth.VerifyToken(testSecret, "")
	assert.Error(t, err)
}

func TestExtractTokenFromCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})

	got, err := auth.ExtractTokenFromRequest(r, "token")
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", got)
}

func TestExtractTokenFromBearerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	got, err := auth.ExtractTokenFromRequest(r, "token")
	require.NoError(t, err)
	assert.Equal(t, "header-token", got)
}

func TestExtractTokenPrefersCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")

	got, err := auth.ExtractTokenFromRequest(r, "token")
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", got)
}

func TestExtractTokenMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.ExtractTokenFromRequest(r, "token")
	assert.Error(t, err)

	r.Header.Set("Authorization", "Basic abc")
	_, err = auth.ExtractTokenFromRequest(r, "token")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = auth.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.Middleware(testSecret, "token")(next)

	// No token: 401, handler not reached.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seenUserID)

	// Valid cookie token: user id lands in the context.
	token, err := auth.IssueToken(testSecret, "user-7", "Bob", "bob@example.com", time.Hour)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", seenUserID)
}
