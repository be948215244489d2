package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/fzokart/internal/domain/auth"
	"github.com/xenking/fzokart/internal/domain/user"
)

func signed(t *testing.T, key []byte, claims auth.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestProtect(t *testing.T) {
	users := &memUsers{byID: map[string]*user.User{
		"u1": {ID: "u1", Name: "Asha", Email: "asha@fzokart.test", Role: user.RoleUser},
	}}
	tokens := auth.NewTokens(auth.TokenConfig{Secret: testSecret})

	valid, err := tokens.Issue("u1", "USER")
	require.NoError(t, err)
	orphan, err := tokens.Issue("deleted", "USER")
	require.NoError(t, err)
	expired := signed(t, testSecret, auth.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"access"},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	forged := signed(t, []byte("other-secret"), auth.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"access"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	refresh, err := tokens.IssueRefresh("u1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		code    int
		message string
	}{
		{"Missing", "", http.StatusUnauthorized, "You are not logged in! Please log in to get access."},
		{"WrongScheme", "Token " + valid, http.StatusUnauthorized, "You are not logged in! Please log in to get access."},
		{"EmptyBearer", "Bearer ", http.StatusUnauthorized, "You are not logged in! Please log in to get access."},
		{"Garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "Invalid token. Please log in again!"},
		{"Forged", "Bearer " + forged, http.StatusUnauthorized, "Invalid token. Please log in again!"},
		{"RefreshTokenAsAccess", "Bearer " + refresh, http.StatusUnauthorized, "Invalid token. Please log in again!"},
		{"Expired", "Bearer " + expired, http.StatusUnauthorized, "Your token has expired! Please log in again."},
		{"UserGone", "Bearer " + orphan, http.StatusUnauthorized, "The user belonging to this token no longer does exist."},
		{"Valid", "Bearer " + valid, http.StatusOK, ""},
		{"LowercaseScheme", "bearer " + valid, http.StatusOK, ""},
	}

	var seen *user.User
	h := Protect(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = currentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.message != "" {
				assert.JSONEq(t, `{"status":"fail","message":"`+tt.message+`"}`, w.Body.String())
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, "u1", seen.ID)
		})
	}
}

func TestRestrictTo(t *testing.T) {
	h := RestrictTo(user.RoleAdmin)(okHandler())

	tests := []struct {
		name string
		user *user.User
		code int
	}{
		{"NoUser", nil, http.StatusForbidden},
		{"Customer", &user.User{ID: "u1", Role: user.RoleUser}, http.StatusForbidden},
		{"Admin", &user.User{ID: "a1", Role: user.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = withUser(ctx, tt.user)
			}
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/p1", nil).WithContext(ctx)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "You do not have permission to perform this action")
			}
		})
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
