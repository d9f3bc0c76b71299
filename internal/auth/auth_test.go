package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "babylog.test"}

func TestParseRoundTrip(t *testing.T) {
	token, err := Sign(*NewClaims("caregiver-1", "Sam", time.Now().Add(time.Hour), ScopeActivitiesRead, ScopeActivitiesWrite), testConfig)
	require.NoError(t, err)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "caregiver-1", claims.Subject)
	require.Equal(t, "Sam", claims.Name)
	require.True(t, claims.HasScope(ScopeActivitiesRead))
	require.True(t, claims.HasScope(ScopeActivitiesWrite))
	require.False(t, claims.HasScope(ScopeSubjectsWrite))
}

func TestParseRejectsBadTokens(t *testing.T) {
	expired, err := Sign(*NewClaims("caregiver-1", "", time.Now().Add(-time.Minute)), testConfig)
	require.NoError(t, err)

	wrongIssuer, err := Sign(*NewClaims("caregiver-1", "", time.Now().Add(time.Hour)), Config{Secret: testConfig.Secret, Issuer: "other"})
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": testConfig.Issuer,
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	for name, token := range map[string]string{"expired": expired, "issuer": wrongIssuer, "subject": noSubject, "garbage": "abc.def.ghi"} {
		_, err := Parse(token, testConfig)
		require.ErrorIs(t, err, ErrInvalidToken, name)
	}

	_, err = Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestParseSpaceSeparatedScopes(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "caregiver-2",
		"iss":    testConfig.Issuer,
		"exp":    jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"scopes": "activities:read  subjects:write",
	}).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Len(t, claims.Scopes, 2)
	require.True(t, claims.HasScope(ScopeSubjectsWrite))
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(testConfig, SkipPaths("/healthz")).Wrap(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Nil(t, seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/subjects", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "missing bearer token")

	token, err := Sign(*NewClaims("caregiver-1", "Sam", time.Now().Add(time.Hour), ScopeActivitiesRead), testConfig)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/v1/subjects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, "caregiver-1", seen.Subject)
}
