package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"banquito/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, username, err := UserFromContext(r)
		require.NoError(t, err)
		assert.NotZero(t, userID)
		assert.NotEmpty(t, username)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Username: "treasurer", Role: models.RoleAdmin}
	token, err := GenerateToken(testKey, user)
	require.NoError(t, err)

	handler := Auth(testKey)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingOrBadToken(t *testing.T) {
	handler := Auth(testKey)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsTokenSignedWithOtherKey(t *testing.T) {
	user := &models.User{ID: 1, Username: "intruder", Role: models.RoleAdmin}
	token, err := GenerateToken([]byte("some-other-key"), user)
	require.NoError(t, err)

	handler := Auth(testKey)(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	adminOnly := Auth(testKey)(RequireRole(models.RoleAdmin)(ok))

	memberToken, err := GenerateToken(testKey, &models.User{ID: 2, Username: "plain", Role: models.RoleMember})
	require.NoError(t, err)
	adminToken, err := GenerateToken(testKey, &models.User{ID: 3, Username: "boss", Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	rec := httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
