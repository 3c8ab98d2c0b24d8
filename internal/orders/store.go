package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/angelmondragon/orderbot/pkg/clock"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

// Store is the authoritative in-memory order store. Orders live in exactly
// one of two partitions. Mutations take the write lock so identifier
// assignment and lookup-then-remove sequences are atomic; reads share the
// read lock and receive copies.
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock
	ids   IDGenerator

	pending   map[string]*Order
	completed map[string]*Order
	seq       uint64

	// Derived from the partitions and rebuilt on every mutation that
	// touches a user.
	pendingPayment map[int64]string
	lastByUser     map[int64]string
}

// StoreParams configure a Store.
type StoreParams struct {
	Clock clock.Clock
	IDs   IDGenerator
}

// NewStore builds an empty Store.
func NewStore(params StoreParams) *Store {
	clk := params.Clock
	if clk == nil {
		clk = clock.Real()
	}
	ids := params.IDs
	if ids == nil {
		ids = RandomIDs{Length: DefaultIDLength}
	}
	return &Store{
		clock:          clk,
		ids:            ids,
		pending:        make(map[string]*Order),
		completed:      make(map[string]*Order),
		pendingPayment: make(map[int64]string),
		lastByUser:     make(map[int64]string),
	}
}

// Create places a new pending order. The identifier is regenerated until it
// is free in both partitions.
func (s *Store) Create(_ context.Context, input CreateInput) (Order, error) {
	if strings.TrimSpace(input.ItemsText) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "order has no items")
	}
	if input.Total < 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order total must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.freeIDLocked()
	if err != nil {
		return Order{}, err
	}

	s.seq++
	order := &Order{
		ID:          id,
		UserID:      input.UserID,
		DisplayName: input.DisplayName,
		Username:    input.Username,
		ItemsText:   input.ItemsText,
		Total:       input.Total,
		Address:     input.Address,
		Status:      enums.OrderStatusPending,
		CreatedAt:   s.clock.Now(),
		seq:         s.seq,
	}
	s.pending[id] = order
	s.reindexLocked(input.UserID)
	return order.clone(), nil
}

func (s *Store) freeIDLocked() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.ids.NewID()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
		}
		if id == "" {
			continue
		}
		if _, taken := s.pending[id]; taken {
			continue
		}
		if _, taken := s.completed[id]; taken {
			continue
		}
		return id, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("no free order id after %d attempts", maxIDAttempts))
}

// AcceptPayment stamps PaidAt on the user's most recent pending order. The
// order stays in the pending partition. Repeated calls keep the first stamp.
func (s *Store) AcceptPayment(_ context.Context, userID int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.latestPendingLocked(userID)
	if order == nil {
		return Order{}, notFound(userID)
	}
	if order.PaidAt == nil {
		now := s.clock.Now()
		order.PaidAt = &now
	}
	s.reindexLocked(userID)
	return order.clone(), nil
}

// Ship moves the user's most recent pending order to the completed
// partition. Of two racing Ship or DeletePending calls for the same single
// order, exactly one succeeds.
func (s *Store) Ship(_ context.Context, userID int64, tracking string) (Order, error) {
	if strings.TrimSpace(tracking) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.latestPendingLocked(userID)
	if order == nil {
		return Order{}, notFound(userID)
	}
	delete(s.pending, order.ID)
	now := s.clock.Now()
	order.Status = enums.OrderStatusShipped
	order.CompletedAt = &now
	order.Tracking = tracking
	s.completed[order.ID] = order
	s.reindexLocked(userID)
	return order.clone(), nil
}

// DeletePending drops the user's most recent pending order without
// completing it. Other users' orders are never touched.
func (s *Store) DeletePending(_ context.Context, userID int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.latestPendingLocked(userID)
	if order == nil {
		return Order{}, notFound(userID)
	}
	delete(s.pending, order.ID)
	s.reindexLocked(userID)
	out := order.clone()
	out.Status = enums.OrderStatusDeleted
	return out, nil
}

// ClearPendingPayment forgets the user's payment reminder without touching
// any order. It is rebuilt on the user's next order mutation.
func (s *Store) ClearPendingPayment(_ context.Context, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingPayment, userID)
}

// Get looks an order up by identifier in either partition.
func (s *Store) Get(_ context.Context, id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.pending[id]; ok {
		return o.clone(), true
	}
	if o, ok := s.completed[id]; ok {
		return o.clone(), true
	}
	return Order{}, false
}

// LatestForUser returns the user's order with the greatest creation time
// across both partitions.
func (s *Store) LatestForUser(_ context.Context, userID int64) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.lastByUser[userID]
	if !ok {
		return Order{}, false
	}
	if o, ok := s.pending[id]; ok {
		return o.clone(), true
	}
	if o, ok := s.completed[id]; ok {
		return o.clone(), true
	}
	return Order{}, false
}

// PendingPaymentFor returns the identifier of the user's latest unpaid order.
func (s *Store) PendingPaymentFor(_ context.Context, userID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pendingPayment[userID]
	return id, ok
}

// List returns a partition newest first.
func (s *Store) List(_ context.Context, partition Partition) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if partition == PartitionCompleted {
		return sortedCopy(s.completed)
	}
	return sortedCopy(s.pending)
}

// Snapshot copies both partitions under one read lock, newest first, so an
// order moving between them is seen exactly once.
func (s *Store) Snapshot(_ context.Context) (pending, completed []Order) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.pending), sortedCopy(s.completed)
}

func sortedCopy(source map[string]*Order) []Order {
	out := make([]Order, 0, len(source))
	for _, o := range source {
		out = append(out, o.clone())
	}
	sort.Slice(out, func(i, j int) bool { return newer(&out[i], &out[j]) })
	return out
}

// Counts returns the partition sizes.
func (s *Store) Counts(_ context.Context) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Pending: len(s.pending), Completed: len(s.completed)}
}

func (s *Store) latestPendingLocked(userID int64) *Order {
	var latest *Order
	for _, o := range s.pending {
		if o.UserID != userID {
			continue
		}
		if latest == nil || newer(o, latest) {
			latest = o
		}
	}
	return latest
}

func (s *Store) reindexLocked(userID int64) {
	var unpaid *Order
	for _, o := range s.pending {
		if o.UserID == userID && o.PaidAt == nil && (unpaid == nil || newer(o, unpaid)) {
			unpaid = o
		}
	}
	if unpaid != nil {
		s.pendingPayment[userID] = unpaid.ID
	} else {
		delete(s.pendingPayment, userID)
	}

	var latest *Order
	for _, partition := range []map[string]*Order{s.pending, s.completed} {
		for _, o := range partition {
			if o.UserID == userID && (latest == nil || newer(o, latest)) {
				latest = o
			}
		}
	}
	if latest != nil {
		s.lastByUser[userID] = latest.ID
	} else {
		delete(s.lastByUser, userID)
	}
}

// newer orders by creation time, falling back to insertion order for ties.
func newer(a, b *Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.seq > b.seq
}

func notFound(userID int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "no pending order for user").
		WithDetails(map[string]any{"user_id": userID})
}
