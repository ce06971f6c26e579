// Package rbac resolves the caller behind a request and gates routes by role.
package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rental"
)

// UserResolver looks up the user behind the credential carried by ctx.
type UserResolver interface {
	CurrentUser(ctx context.Context) (*rental.User, error)
}

// Middleware wires authentication and role checks for HTTP handlers.
type Middleware struct {
	Resolver UserResolver
	Logger   *slog.Logger
}

// Authenticate forwards the caller's bearer token into the request context
// and resolves the caller once per request. Role strings are normalized by the
// backend mapper, so handlers only ever see rental.Role values.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		ctx := backend.WithBearer(r.Context(), token)
		user, err := m.Resolver.CurrentUser(ctx)
		if err != nil {
			if backend.HasStatus(err, http.StatusUnauthorized) || errors.Is(err, backend.ErrNoCredential) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credential")
				return
			}
			m.logger().Error("resolve current user", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(ctx, user)))
	})
}

// RequireRole ensures the current user holds one of the given roles.
func (m Middleware) RequireRole(roles ...rental.Role) func(http.Handler) http.Handler {
	return m.RequirePermission(func(r rental.Role) bool {
		return len(roles) == 0 || r.Is(roles...)
	})
}

// RequirePermission ensures the current user's role passes allowed, such as
// rental.Role.CanReview.
func (m Middleware) RequirePermission(allowed func(rental.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if !allowed(user.Role) {
				m.logger().Warn("role denied",
					slog.String("user_id", user.ID),
					slog.String("role", string(user.Role)),
					slog.String("path", r.URL.Path),
				)
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role "+string(user.Role)+" may not perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
