// Package guard decides whether a navigation target is reachable for the
// current session. It is stateless; the only input besides the target is the
// session's authenticated predicate.
package guard

import "net/http"

// Decision is the outcome of a navigation check.
type Decision int

const (
	// Proceed lets the navigation through.
	Proceed Decision = iota
	// RedirectToLogin sends the caller to the login entry point.
	RedirectToLogin
)

// Decide returns the routing decision for target. The target is part of the
// contract even though the policy today only depends on the predicate.
func Decide(authenticated bool, target string) Decision {
	_ = target
	if authenticated {
		return Proceed
	}
	return RedirectToLogin
}

// RequireAuth wraps protected routes: requests are let through only while
// pred reports an authenticated session, everything else is redirected to
// loginPath.
func RequireAuth(pred func() bool, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Decide(pred(), r.URL.Path) == RedirectToLogin {
				w.Header().Set("Location", loginPath)
				w.WriteHeader(http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
