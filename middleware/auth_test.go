package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("ops-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func guarded() http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Operator", GetSubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	return Authenticate(testSecret)(Authorize(RoleOperator)(ok))
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": RoleOperator}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-token", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, []byte("other"), jwt.MapClaims{"role": RoleOperator}), want: http.StatusUnauthorized},
		{name: "alg none", header: "Bearer " + noneToken, want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": RoleOperator, "exp": past}), want: http.StatusUnauthorized},
		{name: "no role", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "ana"}), want: http.StatusForbidden},
		{name: "role not a string", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": 7}), want: http.StatusForbidden},
		{name: "viewer", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "viewer"}), want: http.StatusForbidden},
		{name: "operator", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": RoleOperator, "sub": "ana", "exp": future}), want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ops/reconcile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			guarded().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "ana", rec.Header().Get("X-Operator"))
			} else {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestContextHelpersWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := GetClaimsFromContext(req.Context())
	assert.Error(t, err)
	_, err = GetRoleFromContext(req.Context())
	assert.Error(t, err)
	assert.Empty(t, GetSubjectFromContext(req.Context()))
}
