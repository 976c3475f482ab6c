package handler

import (
	"net/http"
	"strings"

	"identity-token-service/internal/user/domain"
)

const bearerPrefix = "bearer "

// Protect returns middleware that authenticates the request from the access
// token cookie or the Authorization header, verifies the token, confirms the
// user still exists, and rejects tokens issued before the user's last password
// change. A stale token is treated exactly like an invalid one.
func (h *Handler) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFromRequest(r)
		if token == "" {
			h.unauthorized(w)
			return
		}
		userID, issuedAt, err := h.tokens.ValidateAccess(token)
		if err != nil {
			h.unauthorized(w)
			return
		}
		user, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			// User deleted after the token was issued.
			h.unauthorized(w)
			return
		}
		if user.PasswordChangedAfter(issuedAt) {
			h.unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), user)))
	})
}

// RequireRole returns middleware that rejects authenticated users whose role
// is not in roles. Must run after Protect.
func (h *Handler) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				h.unauthorized(w)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.writeError(w, http.StatusForbidden, "insufficient role")
		})
	}
}

// accessTokenFromRequest returns the access token from the cookie or, if
// absent, from the Authorization Bearer header. Cookie takes precedence.
func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return extractBearer(r.Header.Get("Authorization"))
}

// extractBearer returns the Bearer token from an Authorization header value,
// or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
