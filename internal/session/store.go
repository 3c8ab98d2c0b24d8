package session

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/orderbot/internal/orders"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/types"
)

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateInput) (orders.Order, error)
}

type cooldownClearer interface {
	Clear(ctx context.Context, userID int64) error
}

// AdvanceStatus describes what a free-text reply did to the checkout.
type AdvanceStatus string

const (
	// AdvanceIgnored means the user was not in checkout; the text is chat.
	AdvanceIgnored AdvanceStatus = "ignored"
	// AdvanceCollecting means a field was stored and another is expected.
	AdvanceCollecting AdvanceStatus = "still_collecting"
	// AdvanceOrderCreated means the final field produced an order.
	AdvanceOrderCreated AdvanceStatus = "order_created"
)

// AdvanceResult is returned by Advance.
type AdvanceResult struct {
	Status AdvanceStatus
	Stage  Stage
	Order  orders.Order
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Store owns every user's session. Calls for one user are serialized; calls
// for different users only share the brief map lookup.
type Store struct {
	mu        sync.Mutex
	entries   map[int64]*entry
	orders    orderCreator
	cooldowns cooldownClearer
}

// NewStore builds a Store that creates orders through creator and clears
// cooldowns through cooldowns on reset.
func NewStore(creator orderCreator, cooldowns cooldownClearer) *Store {
	return &Store{
		entries:   make(map[int64]*entry),
		orders:    creator,
		cooldowns: cooldowns,
	}
}

func (s *Store) entry(userID int64) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{session: Session{UserID: userID, Stage: StageIdle}}
		s.entries[userID] = e
	}
	return e, !ok
}

func (s *Store) peek(userID int64) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	return e, ok
}

// existing runs fn on the user's session only if one exists.
func (s *Store) existing(userID int64, fn func(*Session)) bool {
	e, ok := s.peek(userID)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
	return true
}

func (s *Store) with(userID int64, fn func(*Session) error) error {
	e, _ := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.session)
}

// Touch records the user's display identity and reports whether this is the
// first time the user has been seen.
func (s *Store) Touch(_ context.Context, userID int64, displayName, username string) bool {
	e, created := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if displayName != "" {
		e.session.DisplayName = displayName
	}
	if username != "" {
		e.session.Username = username
	}
	return created
}

// KnownUsers returns how many users have a session.
func (s *Store) KnownUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot returns a copy of the user's session. Unknown users get an idle
// session without one being created.
func (s *Store) Snapshot(_ context.Context, userID int64) Session {
	out := Session{UserID: userID, Stage: StageIdle}
	s.existing(userID, func(sess *Session) {
		out = sess.clone()
	})
	return out
}

// Stage returns the user's checkout stage.
func (s *Store) Stage(ctx context.Context, userID int64) Stage {
	return s.Snapshot(ctx, userID).Stage
}

// AddToCart appends item to the cart and returns the new cart size.
func (s *Store) AddToCart(_ context.Context, userID int64, item types.CartItem) int {
	var size int
	_ = s.with(userID, func(sess *Session) error {
		sess.Cart = append(sess.Cart, item)
		size = len(sess.Cart)
		return nil
	})
	return size
}

// ClearCart empties the cart.
func (s *Store) ClearCart(_ context.Context, userID int64) {
	s.existing(userID, func(sess *Session) {
		sess.Cart = nil
	})
}

// CartView returns a copy of the cart.
func (s *Store) CartView(_ context.Context, userID int64) types.Cart {
	var out types.Cart
	s.existing(userID, func(sess *Session) {
		out = sess.Cart.Clone()
	})
	return out
}

// Restart empties the cart and abandons any checkout in progress. Cooldowns
// and the admin pending action are kept.
func (s *Store) Restart(_ context.Context, userID int64) {
	_ = s.with(userID, func(sess *Session) error {
		sess.Cart = nil
		sess.Stage = StageIdle
		sess.Address = types.Address{}
		sess.Draft = nil
		return nil
	})
}

// StartCheckout freezes the cart into a draft, empties the live cart and
// starts address collection.
func (s *Store) StartCheckout(_ context.Context, userID int64) (Draft, error) {
	var draft Draft
	err := s.with(userID, func(sess *Session) error {
		if len(sess.Cart) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		items := sess.Cart.Clone()
		draft = Draft{Items: items, ItemsText: items.Text(), Total: items.Total()}
		d := draft
		sess.Draft = &d
		sess.Cart = nil
		sess.Address = types.Address{}
		sess.Stage = StageFirstName
		return nil
	})
	return draft, err
}

// Advance stores text into the field for the current stage and moves on.
// The last stage creates the order. Outside checkout the text is ignored.
func (s *Store) Advance(ctx context.Context, userID int64, text string) (AdvanceResult, error) {
	var result AdvanceResult
	err := s.with(userID, func(sess *Session) error {
		if !sess.Stage.Collecting() {
			result = AdvanceResult{Status: AdvanceIgnored, Stage: sess.Stage}
			return nil
		}
		value := strings.TrimSpace(text)
		if value == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "a value is required").
				WithDetails(map[string]any{"stage": string(sess.Stage)})
		}

		if !sess.Stage.Terminal() {
			sess.setField(sess.Stage, value)
			sess.Stage = sess.Stage.Next()
			result = AdvanceResult{Status: AdvanceCollecting, Stage: sess.Stage}
			return nil
		}

		if sess.Draft == nil {
			sess.Stage = StageIdle
			return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has no draft")
		}
		address := sess.Address
		address.ReturnNumber = value
		order, err := s.orders.Create(ctx, orders.CreateInput{
			UserID:      sess.UserID,
			DisplayName: sess.DisplayName,
			Username:    sess.Username,
			ItemsText:   sess.Draft.ItemsText,
			Total:       sess.Draft.Total,
			Address:     address,
		})
		if err != nil {
			return err
		}
		sess.Address = types.Address{}
		sess.Draft = nil
		sess.Stage = StageIdle
		result = AdvanceResult{Status: AdvanceOrderCreated, Stage: StageIdle, Order: order}
		return nil
	})
	return result, err
}

// Reset clears the cart, checkout progress, admin pending action and
// cooldowns. Identity fields are kept. Calling it twice is the same as once.
// Resetting a user without a session only clears cooldowns.
func (s *Store) Reset(ctx context.Context, userID int64) error {
	s.existing(userID, func(sess *Session) {
		*sess = Session{
			UserID:      sess.UserID,
			DisplayName: sess.DisplayName,
			Username:    sess.Username,
			Stage:       StageIdle,
		}
	})
	if s.cooldowns == nil {
		return nil
	}
	return s.cooldowns.Clear(ctx, userID)
}

// SetAdminPending stores the operator's moderation step.
func (s *Store) SetAdminPending(_ context.Context, userID int64, action PendingAction) {
	_ = s.with(userID, func(sess *Session) error {
		a := action
		sess.AdminPending = &a
		return nil
	})
}

// AdminPending returns the operator's moderation step, if any.
func (s *Store) AdminPending(_ context.Context, userID int64) (PendingAction, bool) {
	var (
		out PendingAction
		ok  bool
	)
	s.existing(userID, func(sess *Session) {
		if sess.AdminPending != nil {
			out, ok = *sess.AdminPending, true
		}
	})
	return out, ok
}

// ClearAdminPending drops the operator's moderation step.
func (s *Store) ClearAdminPending(_ context.Context, userID int64) {
	s.existing(userID, func(sess *Session) {
		sess.AdminPending = nil
	})
}

// UpdateAdminPending applies fn to the operator's moderation step under the
// session lock. fn receives nil when nothing is pending and returns the new
// value, or nil to clear it. An error from fn leaves the step untouched.
func (s *Store) UpdateAdminPending(_ context.Context, userID int64, fn func(current *PendingAction) (*PendingAction, error)) error {
	return s.with(userID, func(sess *Session) error {
		var current *PendingAction
		if sess.AdminPending != nil {
			c := *sess.AdminPending
			current = &c
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		sess.AdminPending = next
		return nil
	})
}
