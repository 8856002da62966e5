// Package session owns the authenticated session: the bearer token, the user
// profile, and the login/logout/signup/password flows against the user
// service. It is the single writer of session state; everything else observes
// it through Subscribe or the predicates.
package session

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/pradeepkasula/online-shopping-cart/api"
)

// User is the locally cached profile. It is only meaningful while a token is
// held.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Config configures a Manager.
type Config struct {
	// UserID is the fixed shopper identity used for cart and order calls.
	UserID int64
	// CredentialsPath is where the token and cached profile persist between
	// runs (the browser-localStorage analog). Empty disables persistence.
	CredentialsPath string
	Log             logrus.FieldLogger
}

// Manager is the identity session state machine: Anonymous until a login
// succeeds, back to Anonymous on logout or on any 401 from any service.
type Manager struct {
	client *api.Client
	userID int64
	path   string
	log    logrus.FieldLogger

	mu        sync.Mutex
	token     string
	user      User
	expiresAt time.Time
	subs      []func()
}

// New builds the manager and the transport client it feeds tokens to. The
// manager installs itself as the transport's 401 policy, so session
// invalidation is uniform across every outgoing call.
func New(apiCfg api.Config, cfg Config) *Manager {
	m := &Manager{
		userID: cfg.UserID,
		path:   cfg.CredentialsPath,
		log:    cfg.Log,
	}
	if m.userID == 0 {
		m.userID = 1
	}
	if m.log == nil {
		m.log = logrus.New()
	}
	apiCfg.Tokens = m.Token
	apiCfg.OnUnauthorized = m.Invalidate
	if apiCfg.Log == nil {
		apiCfg.Log = m.log
	}
	m.client = api.New(apiCfg)
	m.restore()
	return m
}

// Client returns the transport client bound to this session's token.
func (m *Manager) Client() *api.Client { return m.client }

// UserID returns the fixed shopper identity for cart and order calls.
func (m *Manager) UserID() int64 { return m.userID }

// IsAuthenticated reports whether a token is currently held. This is the
// predicate the route guard consults.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// Token returns the current bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns the cached profile and whether a session exists.
func (m *Manager) User() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, m.token != ""
}

// ExpiresAt returns the token's exp claim when the token is a JWT carrying
// one. Purely informational; expiry is enforced server-side.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt, !m.expiresAt.IsZero()
}

// Subscribe registers fn to run after every session state change.
func (m *Manager) Subscribe(fn func()) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *Manager) notify() {
	m.mu.Lock()
	subs := make([]func(), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Signup forwards registration data. No session is created; the caller is
// expected to proceed to login.
func (m *Manager) Signup(ctx context.Context, req api.SignupRequest) error {
	return m.client.Signup(ctx, req)
}

// Login exchanges credentials for a session. The password-change-required
// refusal comes back as an api error with KindChangeRequired and never stores
// a token. A failed profile fetch degrades to a minimal profile derived from
// the supplied username; it never blocks the login.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	m.setSession(resp.Token, User{ID: m.userID, Username: username})

	profile, err := m.client.GetMe(ctx)
	if err != nil {
		// The 401 path may have invalidated the session just set; login
		// success is never blocked by the profile fetch, so restore it.
		m.log.WithField("error", err).Warn("profile fetch failed, using minimal profile")
		m.setSession(resp.Token, User{ID: m.userID, Username: username})
	} else {
		m.setSession(resp.Token, User{
			ID:       m.userID,
			Username: profile.Username,
			Email:    profile.Email,
			FullName: profile.FullName,
			Phone:    profile.Phone,
		})
	}

	m.log.WithField("username", username).Info("user logged in")
	m.notify()
	return nil
}

// Logout clears the session. Safe to call when already anonymous.
func (m *Manager) Logout() {
	m.clear()
	m.notify()
}

// Reset clears any existing session state, the way the login screen does on
// entry.
func (m *Manager) Reset() {
	m.clear()
	m.notify()
}

// Invalidate is the forced session clear the transport runs on any 401.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	had := m.token != ""
	m.mu.Unlock()
	if had {
		m.log.Warn("session invalidated by unauthorized response")
	}
	m.clear()
	m.notify()
}

// ForgotPassword requests a temporary password for username and hands it
// straight back for display. The manager never retains it.
func (m *Manager) ForgotPassword(ctx context.Context, username string) (string, error) {
	return m.client.ForgotPassword(ctx, username)
}

// ChangePassword submits the temp-password tuple. Session state is untouched;
// a subsequent explicit login is required.
func (m *Manager) ChangePassword(ctx context.Context, username, tempPassword, newPassword string) error {
	return m.client.ChangePassword(ctx, username, tempPassword, newPassword)
}

func (m *Manager) setSession(token string, user User) {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.expiresAt = tokenExpiry(token)
	m.mu.Unlock()
	m.persist(token, user)
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = ""
	m.user = User{}
	m.expiresAt = time.Time{}
	m.mu.Unlock()
	if m.path != "" {
		_ = os.Remove(m.path)
	}
}

// tokenExpiry decodes the exp claim without verifying the signature; the
// client has no key and only uses the value for display and logging.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

type credentialsFile struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (m *Manager) persist(token string, user User) {
	if m.path == "" {
		return
	}
	data, err := json.Marshal(credentialsFile{Token: token, User: user})
	if err == nil {
		err = os.WriteFile(m.path, data, 0o600)
	}
	if err != nil {
		m.log.WithField("error", err).Warn("failed to persist credentials")
	}
}

func (m *Manager) restore() {
	if m.path == "" {
		return
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil || creds.Token == "" {
		return
	}
	m.mu.Lock()
	m.token = creds.Token
	m.user = creds.User
	m.expiresAt = tokenExpiry(creds.Token)
	m.mu.Unlock()
	m.log.WithField("username", creds.User.Username).Debug("restored persisted session")
}
