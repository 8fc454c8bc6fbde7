package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/permission"
)

type stubResolver struct {
	principal application.Principal
	err       error
	subjects  []string
}

func (s *stubResolver) ResolvePrincipal(_ context.Context, subject string) (application.Principal, error) {
	s.subjects = append(s.subjects, subject)
	return s.principal, s.err
}

func tokenFor(t *testing.T, claims jwt.RegisteredClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestRequireIdentity(t *testing.T) {
	secret := []byte("middleware-secret")
	cfg := IdentityConfig{Secret: secret, Issuer: "https://idp.example.test", Audience: "clubhouse"}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := jwt.RegisteredClaims{
		Subject:   "idp|42",
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{"clubhouse"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	serve := func(resolver PrincipalResolver, token string) (*httptest.ResponseRecorder, *application.Principal) {
		var seen *application.Principal
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := PrincipalFromContext(r.Context()); ok {
				seen = &p
			}
			w.WriteHeader(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		RequireIdentity(resolver, cfg, discard)(next).ServeHTTP(rec, req)
		return rec, seen
	}

	t.Run("Should attach the resolved principal", func(t *testing.T) {
		resolver := &stubResolver{principal: application.Principal{UserID: "user-42", Level: permission.Regular, ClubIDs: []string{"club-1"}}}
		rec, seen := serve(resolver, tokenFor(t, valid, jwt.SigningMethodHS256, secret))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-42", seen.UserID)
		assert.Equal(t, []string{"idp|42"}, resolver.subjects)
	})

	t.Run("Should reject tokens for another issuer or audience", func(t *testing.T) {
		resolver := &stubResolver{}
		foreignIssuer := valid
		foreignIssuer.Issuer = "https://elsewhere.example.test"
		foreignAudience := valid
		foreignAudience.Audience = jwt.ClaimStrings{"billing"}

		for _, claims := range []jwt.RegisteredClaims{foreignIssuer, foreignAudience} {
			rec, seen := serve(resolver, tokenFor(t, claims, jwt.SigningMethodHS256, secret))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, seen)
		}
		assert.Empty(t, resolver.subjects)
	})

	t.Run("Should require an expiry", func(t *testing.T) {
		claims := valid
		claims.ExpiresAt = nil
		rec, _ := serve(&stubResolver{}, tokenFor(t, claims, jwt.SigningMethodHS256, secret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should refuse other signing methods", func(t *testing.T) {
		rec, _ := serve(&stubResolver{}, tokenFor(t, valid, jwt.SigningMethodHS384, secret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should surface resolver failures as server errors", func(t *testing.T) {
		rec, seen := serve(&stubResolver{err: errors.New("database is locked")}, tokenFor(t, valid, jwt.SigningMethodHS256, secret))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("Should answer unknown subjects with 401", func(t *testing.T) {
		rec, _ := serve(&stubResolver{err: application.ErrUnauthenticated}, tokenFor(t, valid, jwt.SigningMethodHS256, secret))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error_code":"AUTH_REQUIRED"`)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer   abc.def  ", want: "abc.def"},
		{header: "Basic abc.def", want: ""},
		{header: "Bearer", want: ""},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		assert.Equal(t, tc.want, bearerToken(req), "header %q", tc.header)
	}
}

func TestRequestLogger(t *testing.T) {
	t.Run("Should log completion with the written status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hours", nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "request completed", entry["msg"])
		assert.Equal(t, "/hours", entry["path"])
		assert.EqualValues(t, http.StatusTeapot, entry["status"])
		assert.EqualValues(t, 1, entry["request_id"])
	})

	t.Run("Should default to 200 when the handler only writes a body", func(t *testing.T) {
		recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
		_, err := recorder.Write([]byte("ok"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, recorder.statusCode())
	})
}
