package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	assert.Equal(t, Proceed, Decide(true, "/cart/checkout"))
	assert.Equal(t, RedirectToLogin, Decide(false, "/cart/checkout"))
	assert.Equal(t, RedirectToLogin, Decide(false, "/orders"))
}

func TestRequireAuthRedirectsAnonymousRequests(t *testing.T) {
	authed := false
	called := false
	handler := RequireAuth(func() bool { return authed }, "/login")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, called)
}

func TestRequireAuthPassesAuthenticatedRequests(t *testing.T) {
	called := false
	handler := RequireAuth(func() bool { return true }, "/login")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAuthConsultsPredicatePerRequest(t *testing.T) {
	authed := true
	handler := RequireAuth(func() bool { return authed }, "/login")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A session invalidated between requests turns the same route away.
	authed = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
}
