package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/pradeepkasula/online-shopping-cart/api"
)

func TestRenderAPIErrorStatusMapping(t *testing.T) {
	log := logrus.New()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", api.ValidationError("quantity must be at least 1"), http.StatusUnprocessableEntity},
		{"unauthorized", &api.Error{Kind: api.KindUnauthorized, Status: 401, Message: "Unauthorized"}, http.StatusUnauthorized},
		{"change required", &api.Error{Kind: api.KindChangeRequired, Status: 403, Message: "Password change required"}, http.StatusForbidden},
		{"not found", &api.Error{Kind: api.KindNotFound, Status: 404, Message: "no such product"}, http.StatusNotFound},
		{"network", &api.Error{Kind: api.KindNetwork, Message: "connection refused"}, http.StatusBadGateway},
		{"server", &api.Error{Kind: api.KindServer, Status: 500, Message: "boom"}, http.StatusInternalServerError},
		{"plain error", errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			renderAPIError(log, rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRenderAPIErrorKeepsWrappedClassification(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := errors.Wrap(&api.Error{Kind: api.KindUnauthorized, Status: 401, Message: "Unauthorized"}, "could not fetch cart")
	renderAPIError(logrus.New(), rec, wrapped)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
