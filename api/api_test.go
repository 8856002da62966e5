package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestBearerTokenAttachedIffPresent(t *testing.T) {
	var gotAuth []string
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Product{})
	})

	token := ""
	c := New(Config{ProductAddr: addr, Tokens: func() string { return token }})

	_, err := c.GetProducts(context.Background())
	require.NoError(t, err)

	token = "T"
	_, err = c.GetProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, gotAuth, 2)
	assert.Empty(t, gotAuth[0])
	assert.Equal(t, "Bearer T", gotAuth[1])
}

func TestRequestIDHeaderSet(t *testing.T) {
	var gotID string
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		_ = json.NewEncoder(w).Encode([]Product{})
	})

	c := New(Config{ProductAddr: addr})
	_, err := c.GetProducts(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, gotID)
}

func TestUnauthorizedTriggersHookAndKind(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
	})

	invoked := 0
	c := New(Config{CartAddr: addr, OnUnauthorized: func() { invoked++ }})

	_, err := c.GetCart(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, invoked)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestChangeRequiredClassification(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Password change required"})
	})

	c := New(Config{UserAddr: addr})
	_, err := c.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.True(t, IsChangeRequired(err))
	assert.False(t, IsUnauthorized(err))
}

func TestPlainForbiddenIsServerError(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired temp password"})
	})

	c := New(Config{UserAddr: addr})
	err := c.ChangePassword(context.Background(), "alice", "tmp", "newpw1")
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestNotFoundClassification(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := New(Config{ProductAddr: addr})
	_, err := c.GetProduct(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestServerErrorMessageParsing(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
	})

	c := New(Config{OrderAddr: addr})
	_, err := c.GetOrders(context.Background(), 1)
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestNetworkErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	c := New(Config{CartAddr: addr})
	_, err := c.GetCart(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestGetCartDecodesCanonicalShape(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Cart{
			UserID: 7,
			Items: []CartItem{
				{ID: 3, ProductID: 11, ProductName: "Widget", Price: 10, Quantity: 2, Subtotal: 20},
			},
			TotalPrice: 20,
		})
	})

	c := New(Config{CartAddr: addr})
	cart, err := c.GetCart(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].ID)
	assert.Equal(t, 20.0, cart.TotalPrice)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	called := false
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	c := New(Config{OrderAddr: addr})
	_, err := c.CreateOrder(context.Background(), 1, nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.False(t, called)
}

func TestForgotPasswordReturnsTempPassword(t *testing.T) {
	addr := testAddr(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/forgot-password", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"tempPassword": "a1b2c3d4"})
	})

	c := New(Config{UserAddr: addr})
	temp, err := c.ForgotPassword(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", temp)
}
