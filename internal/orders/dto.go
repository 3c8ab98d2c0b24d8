package orders

import (
	"time"

	"github.com/angelmondragon/orderbot/pkg/enums"
	"github.com/angelmondragon/orderbot/pkg/types"
)

// Order is a finalized cart with its shipping address and lifecycle state.
type Order struct {
	ID          string            `json:"id"`
	UserID      int64             `json:"user_id"`
	DisplayName string            `json:"display_name"`
	Username    string            `json:"username,omitempty"`
	ItemsText   string            `json:"items_text"`
	Total       int               `json:"total"`
	Address     types.Address     `json:"address"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Tracking    string            `json:"tracking,omitempty"`

	seq uint64
}

// Paid reports whether the operator has accepted payment.
func (o Order) Paid() bool {
	return o.PaidAt != nil
}

func (o *Order) clone() Order {
	out := *o
	if o.PaidAt != nil {
		t := *o.PaidAt
		out.PaidAt = &t
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// CreateInput carries everything needed to place an order.
type CreateInput struct {
	UserID      int64
	DisplayName string
	Username    string
	ItemsText   string
	Total       int
	Address     types.Address
}

// Partition selects one side of the order store.
type Partition string

const (
	PartitionPending   Partition = "pending"
	PartitionCompleted Partition = "completed"
)

// Counts summarizes partition sizes.
type Counts struct {
	Pending   int
	Completed int
}

// Total is the number of orders across both partitions.
func (c Counts) Total() int {
	return c.Pending + c.Completed
}
