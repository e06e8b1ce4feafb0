package middleware

import (
	"context"
	"net/http"
	"strings"

	courseauth "github.com/progplatform/courseauth"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the identity Guard attached to the request
// context.
func AuthResultFromContext(ctx context.Context) (*courseauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*courseauth.AuthResult)
	return res, ok
}

// Guard validates the Authorization bearer token against the Service and
// injects the authenticated identity into the request context. Requests
// without a valid access token get 401.
func Guard(service *courseauth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := service.Introspect(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole wraps Guard and rejects authenticated callers whose role is
// not in the allowed set with 403.
func RequireRole(service *courseauth.Service, roles ...courseauth.Role) func(http.Handler) http.Handler {
	allowed := make(map[courseauth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		check := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[res.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
		return Guard(service)(check)
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
