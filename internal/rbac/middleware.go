package rbac

import (
	"net/http"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
)

var defaultChecker = NewChecker(nil)

func Allowed(r *http.Request, perm string) bool {
	role := RoleFromContext(r.Context())
	return role != "" && defaultChecker.Has(role, perm)
}

func forbid(w http.ResponseWriter) {
	apierr.Write(w, apierr.Forbidden("forbidden"))
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Allowed(r, perm) {
				forbid(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr lets owners through and everyone else only with perm.
func RequireOwnerOr(perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isOwner(r) || Allowed(r, perm) {
				next.ServeHTTP(w, r)
				return
			}
			forbid(w)
		})
	}
}
