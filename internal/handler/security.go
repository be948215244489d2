package handler

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/apperr"
	"github.com/xenking/fzokart/internal/domain/auth"
	"github.com/xenking/fzokart/internal/domain/user"
	"github.com/xenking/fzokart/pkg/httpmiddleware"
)

var (
	errNotLoggedIn = apperr.Unauthorized("You are not logged in! Please log in to get access.")
	errUserGone    = apperr.Unauthorized("The user belonging to this token no longer does exist.")
	errForbidden   = apperr.Forbidden("You do not have permission to perform this action")
)

// UserGetter loads the account a token was issued to.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type userKey struct{}

// withUser stores the authenticated user in ctx.
func withUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// currentUser returns the user set by Protect, or nil.
func currentUser(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey{}).(*user.User)
	return u
}

// Protect authenticates requests with a Bearer access token and attaches the
// token's user to the request context.
func Protect(tokens *auth.Tokens, users UserGetter) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				fail(w, r, errNotLoggedIn)
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				fail(w, r, err)
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			switch {
			case errors.Is(err, user.ErrNotFound):
				fail(w, r, errUserGone)
				return
			case err != nil:
				fail(w, r, errors.Wrap(err, "load token user"))
				return
			}

			ctx := zctx.With(withUser(r.Context(), u), zap.String("user_id", u.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestrictTo allows only users whose role is listed. It must run after
// Protect.
func RestrictTo(roles ...user.Role) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := currentUser(r.Context())
			if u == nil || !slices.Contains(roles, u.Role) {
				fail(w, r, errForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
