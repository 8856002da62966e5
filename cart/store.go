// Package cart keeps the single authoritative local mirror of one user's
// server-side cart. Every mutation goes through the server and the mirror is
// rebuilt from a full refetch, never patched from a mutation's own response,
// so server-side pricing and stock rules can never drift from what we show.
package cart

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pradeepkasula/online-shopping-cart/api"
)

// Store mirrors the cart of a fixed user identity.
type Store struct {
	client *api.Client
	userID int64
	log    logrus.FieldLogger

	mu      sync.Mutex
	cart    api.Cart
	count   int
	seq     uint64 // ticket handed to each operation at issue time
	applied uint64 // ticket of the operation whose state is currently applied
	subs    []func()
}

// New builds a store for userID backed by client.
func New(client *api.Client, userID int64, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{
		client: client,
		userID: userID,
		log:    log,
		cart:   api.Cart{UserID: userID},
	}
}

// Cart returns a copy of the mirrored cart.
func (s *Store) Cart() api.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart
	c.Items = append([]api.CartItem(nil), s.cart.Items...)
	return c
}

// Count returns the derived item count: the sum of all line quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// TotalPrice returns the server-computed cart total.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice
}

// Subscribe registers fn to run after every applied state replacement.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Fetch reloads the cart from the server and replaces local state.
func (s *Store) Fetch(ctx context.Context) error {
	return s.refresh(ctx, s.begin())
}

// Add posts a new cart line (or increments an existing one, per the server's
// policy) and refetches. Quantity must be a positive integer; anything else
// is rejected before a call is made.
func (s *Store) Add(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return api.ValidationError("quantity must be a positive integer")
	}
	ticket := s.begin()
	if err := s.client.AddCartItem(ctx, s.userID, productID, quantity); err != nil {
		return err
	}
	return s.refresh(ctx, ticket)
}

// Update sets a line's quantity and refetches. Decrementing to zero is
// rejected locally; removal is an explicit Remove.
func (s *Store) Update(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 1 {
		return api.ValidationError("quantity must be at least 1")
	}
	ticket := s.begin()
	if err := s.client.UpdateCartItem(ctx, itemID, quantity); err != nil {
		return err
	}
	return s.refresh(ctx, ticket)
}

// Remove deletes a line and refetches.
func (s *Store) Remove(ctx context.Context, itemID int64) error {
	ticket := s.begin()
	if err := s.client.RemoveCartItem(ctx, itemID); err != nil {
		return err
	}
	return s.refresh(ctx, ticket)
}

// Clear empties the cart. The post-state is known unambiguously, so the store
// resets locally without a refetch round-trip.
func (s *Store) Clear(ctx context.Context) error {
	ticket := s.begin()
	if err := s.client.ClearCart(ctx, s.userID); err != nil {
		return err
	}
	s.apply(ticket, api.Cart{UserID: s.userID})
	return nil
}

// begin hands out the operation's ticket. Tickets order concurrent
// operations by issue time so a slow early response cannot clobber the state
// a later operation already applied.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Store) refresh(ctx context.Context, ticket uint64) error {
	fresh, err := s.client.GetCart(ctx, s.userID)
	if err != nil {
		return err
	}
	s.apply(ticket, *fresh)
	return nil
}

// apply replaces local state with c unless a newer operation already applied
// its result, in which case the stale completion is discarded. Failure paths
// never reach apply, so a failed mutation leaves prior state untouched.
func (s *Store) apply(ticket uint64, c api.Cart) {
	s.mu.Lock()
	if ticket < s.applied {
		s.mu.Unlock()
		s.log.WithField("ticket", ticket).Debug("discarding stale cart state")
		return
	}
	s.applied = ticket
	s.cart = c
	s.count = 0
	for _, item := range c.Items {
		s.count += item.Quantity
	}
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
