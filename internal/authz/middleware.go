package authz

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frotadesk/frotadesk/internal/platform/httpx"
	"github.com/frotadesk/frotadesk/internal/shared"
)

// Middleware wires authorization checks into HTTP routes.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the session user is authenticated and allowed to perform
// the named operation.
func (m Middleware) Require(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				httpx.Fail(w, http.StatusUnauthorized, "authentication required")
				return
			}
			role := Role(sess.Role())
			if err := Authorize(role, operation); err != nil {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("operation", operation),
						slog.String("role", string(role)),
						slog.String("user", sess.User()))
				}
				httpx.Fail(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUserID extracts the authenticated user ID from the request session.
func CurrentUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
