package rbac

import (
	"context"
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Decision is the typed outcome of an authorization check. The
// presentation layer turns it into a redirect or a structured error.
type Decision int

const (
	Allowed Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Authorize checks the role stored in ctx against perm.
func Authorize(ctx context.Context, perm string) Decision {
	role := RoleFromContext(ctx)
	if role == "" {
		return Unauthenticated
	}
	if !defaultChecker.Has(role, perm) {
		return Forbidden
	}
	return Allowed
}

// DenyFunc renders a non-Allowed decision.
type DenyFunc func(w http.ResponseWriter, r *http.Request, d Decision)

// Require enforces a single permission and hands failures to deny.
func Require(perm string, deny DenyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := Authorize(r.Context(), perm); d != Allowed {
				deny(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
