// Package api is the transport client for the four shopping backend services
// (product, cart, order, user). It owns request construction, bearer token
// attachment and failure classification; nothing above it touches HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultProductAddr = "localhost:8081"
	defaultCartAddr    = "localhost:8082"
	defaultOrderAddr   = "localhost:8083"
	defaultUserAddr    = "localhost:8084"

	requestTimeout = 10 * time.Second
)

// changeRequiredMarker is the body the user service sends with its 403 when
// login is refused until the password is changed.
const changeRequiredMarker = "Password change required"

// TokenSource yields the current bearer token, or "" when anonymous. It is
// read at call-issue time, so a logout after dispatch does not affect an
// in-flight request.
type TokenSource func() string

// Config configures a Client. Zero-value fields fall back to the local
// defaults of the demo deployment.
type Config struct {
	ProductAddr string
	CartAddr    string
	OrderAddr   string
	UserAddr    string

	HTTPClient *http.Client
	Tokens     TokenSource
	// OnUnauthorized runs once for every 401 received from any service,
	// before the error is returned to the caller.
	OnUnauthorized func()
	Log            logrus.FieldLogger
}

// Client talks to the four backend services.
type Client struct {
	productAddr string
	cartAddr    string
	orderAddr   string
	userAddr    string

	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
	log            logrus.FieldLogger
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	c := &Client{
		productAddr:    cfg.ProductAddr,
		cartAddr:       cfg.CartAddr,
		orderAddr:      cfg.OrderAddr,
		userAddr:       cfg.UserAddr,
		httpClient:     cfg.HTTPClient,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		log:            cfg.Log,
	}
	if c.productAddr == "" {
		c.productAddr = defaultProductAddr
	}
	if c.cartAddr == "" {
		c.cartAddr = defaultCartAddr
	}
	if c.orderAddr == "" {
		c.orderAddr = defaultOrderAddr
	}
	if c.userAddr == "" {
		c.userAddr = defaultUserAddr
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.tokens == nil {
		c.tokens = func() string { return "" }
	}
	if c.log == nil {
		c.log = logrus.New()
	}
	return c
}

// errorBody is the structured message shape the Spring services use. Some
// endpoints answer {"error": ...}, others {"message": ...}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) best() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

// do issues one request and decodes a 2xx body into out (when out is
// non-nil). Exactly one of {decoded payload, *Error} comes back.
func (c *Client) do(ctx context.Context, method, addr, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindClient, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	url := fmt.Sprintf("http://%s%s", addr, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &Error{Kind: KindClient, Message: fmt.Sprintf("build request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithField("method", method).WithField("url", url).
			WithField("error", err).Warn("backend unreachable")
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("service unreachable: %v", err)}
	}
	defer resp.Body.Close()

	c.log.WithField("method", method).WithField("url", url).
		WithField("status", resp.StatusCode).
		WithField("duration", time.Since(start).String()).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindClient, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// classify turns a non-2xx response into the closed error taxonomy. The 401
// hook fires here so session invalidation is uniform across every call site.
func (c *Client) classify(resp *http.Response) *Error {
	raw, _ := io.ReadAll(resp.Body)
	var parsed errorBody
	_ = json.Unmarshal(raw, &parsed)
	msg := parsed.best()
	if msg == "" {
		msg = fmt.Sprintf("request failed (status %d)", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: msg}
	case resp.StatusCode == http.StatusForbidden && strings.Contains(msg, changeRequiredMarker):
		return &Error{Kind: KindChangeRequired, Status: resp.StatusCode, Message: msg}
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: resp.StatusCode, Message: msg}
	default:
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msg}
	}
}

// --- Product service ---

// GetProducts lists the catalog.
func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, c.productAddr, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one catalog entry.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, c.productAddr, fmt.Sprintf("/api/products/%d", id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct adds a catalog entry.
func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	var created Product
	if err := c.do(ctx, http.MethodPost, c.productAddr, "/api/products", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStock sets a product's stock level.
func (c *Client) UpdateStock(ctx context.Context, id int64, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ValidationError("stock must not be negative")
	}
	var updated Product
	body := struct {
		Stock int `json:"stock"`
	}{Stock: stock}
	if err := c.do(ctx, http.MethodPut, c.productAddr, fmt.Sprintf("/api/products/%d/stock", id), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// --- Cart service ---

// GetCart loads the full cart for userID.
func (c *Client) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, c.cartAddr, fmt.Sprintf("/api/cart/%d", userID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartItem posts a new cart line. Incrementing an already-present product
// is the server's policy, not ours.
func (c *Client) AddCartItem(ctx context.Context, userID, productID int64, quantity int) error {
	body := struct {
		UserID    int64 `json:"userId"`
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}{UserID: userID, ProductID: productID, Quantity: quantity}
	return c.do(ctx, http.MethodPost, c.cartAddr, "/api/cart/items", body, nil)
}

// UpdateCartItem sets the quantity of one cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}
	return c.do(ctx, http.MethodPut, c.cartAddr, fmt.Sprintf("/api/cart/items/%d", itemID), body, nil)
}

// RemoveCartItem deletes one cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, c.cartAddr, fmt.Sprintf("/api/cart/items/%d", itemID), nil, nil)
}

// ClearCart empties the whole cart for userID.
func (c *Client) ClearCart(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, c.cartAddr, fmt.Sprintf("/api/cart/%d", userID), nil, nil)
}

// --- Order service ---

// CreateOrder submits an order for userID.
func (c *Client) CreateOrder(ctx context.Context, userID int64, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ValidationError("order must contain at least one item")
	}
	body := struct {
		UserID int64       `json:"userId"`
		Items  []OrderItem `json:"items"`
	}{UserID: userID, Items: items}
	var order Order
	if err := c.do(ctx, http.MethodPost, c.orderAddr, "/api/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders lists userID's past orders.
func (c *Client) GetOrders(ctx context.Context, userID int64) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, c.orderAddr, fmt.Sprintf("/api/orders/%d", userID), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order by its own id.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, c.orderAddr, fmt.Sprintf("/api/orders/order/%d", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// --- User service ---

// Signup registers a new account. No session is created; the caller proceeds
// to login.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.do(ctx, http.MethodPost, c.userAddr, "/api/users/signup", req, nil)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, c.userAddr, "/api/users/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword requests a 15-minute temporary password for username. The
// credential is returned to the caller for display, never retained here.
func (c *Client) ForgotPassword(ctx context.Context, username string) (string, error) {
	body := struct {
		Username string `json:"username"`
	}{Username: username}
	var resp struct {
		TempPassword string `json:"tempPassword"`
	}
	if err := c.do(ctx, http.MethodPost, c.userAddr, "/api/users/forgot-password", body, &resp); err != nil {
		return "", err
	}
	return resp.TempPassword, nil
}

// ChangePassword submits the temp-password tuple. Session state is untouched;
// an explicit login follows.
func (c *Client) ChangePassword(ctx context.Context, username, tempPassword, newPassword string) error {
	body := struct {
		Username     string `json:"username"`
		TempPassword string `json:"tempPassword"`
		NewPassword  string `json:"newPassword"`
	}{Username: username, TempPassword: tempPassword, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, c.userAddr, "/api/users/change-password", body, nil)
}

// GetMe fetches the profile of the token's owner.
func (c *Client) GetMe(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, c.userAddr, "/api/users/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
