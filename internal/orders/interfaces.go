package orders

import "context"

// Reader is the read side of the order store used by stats, jobs and
// help-request correlation.
type Reader interface {
	Get(ctx context.Context, id string) (Order, bool)
	LatestForUser(ctx context.Context, userID int64) (Order, bool)
	List(ctx context.Context, partition Partition) []Order
	Counts(ctx context.Context) Counts
	PendingPaymentFor(ctx context.Context, userID int64) (string, bool)
}

// Writer mutates order lifecycle state.
type Writer interface {
	Create(ctx context.Context, input CreateInput) (Order, error)
	AcceptPayment(ctx context.Context, userID int64) (Order, error)
	Ship(ctx context.Context, userID int64, tracking string) (Order, error)
	DeletePending(ctx context.Context, userID int64) (Order, error)
}

// Repository is the full order store contract.
type Repository interface {
	Reader
	Writer
}

var _ Repository = (*Store)(nil)
