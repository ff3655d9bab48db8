package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/goalsetter/internal/ctxkeys"
	"github.com/templui/goalsetter/internal/service"
)

// RequireAuth resolves the requester from the Authorization bearer token,
// falling back to the auth_token cookie, and rejects the request with 401
// when neither carries a valid token.
func RequireAuth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authService.RequesterID(bearerToken(r))
			if err != nil {
				slog.DebugContext(r.Context(), "request not authenticated", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized, no valid token")
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	cookie, err := r.Cookie("auth_token")
	if err == nil {
		return cookie.Value
	}
	return ""
}
