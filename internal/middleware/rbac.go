package middleware

import (
	"net/http"

	"review-hub/internal/models"
)

// RequireRole checks that the authenticated user carries the given role.
// The role travels in the token claims, so no lookup is needed here.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

// RequireAnyRole checks that the authenticated user carries one of the
// given roles.
func RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := GetUserRole(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			hasRole := false
			for _, required := range roles {
				if userRole == required {
					hasRole = true
					break
				}
			}

			if !hasRole {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
