// Package stats derives revenue and count summaries from the order store.
package stats

import (
	"context"
	"time"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/pkg/clock"
)

type orderLister interface {
	Snapshot(ctx context.Context) (pending, completed []orders.Order)
}

// Summary is a point-in-time report. Revenue counts completed orders only.
type Summary struct {
	TotalOrders    int       `json:"total_orders"`
	CompletedCount int       `json:"completed_count"`
	PendingCount   int       `json:"pending_count"`
	TotalRevenue   int       `json:"total_revenue"`
	TodayRevenue   int       `json:"today_revenue"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Aggregator computes summaries on demand. It holds no order state.
type Aggregator struct {
	orders orderLister
	clock  clock.Clock
	loc    *time.Location
}

// NewAggregator builds an Aggregator. A nil location means process-local time.
func NewAggregator(lister orderLister, clk clock.Clock, loc *time.Location) *Aggregator {
	if clk == nil {
		clk = clock.Real()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{orders: lister, clock: clk, loc: loc}
}

// Location is the zone used for calendar-day boundaries.
func (a *Aggregator) Location() *time.Location { return a.loc }

// Summary computes the current report.
func (a *Aggregator) Summary(ctx context.Context) Summary {
	pending, completed := a.orders.Snapshot(ctx)
	now := a.clock.Now().In(a.loc)

	out := Summary{
		TotalOrders:    len(pending) + len(completed),
		CompletedCount: len(completed),
		PendingCount:   len(pending),
		GeneratedAt:    now,
	}
	for _, o := range completed {
		out.TotalRevenue += o.Total
		if o.CompletedAt != nil && SameDay(*o.CompletedAt, now, a.loc) {
			out.TodayRevenue += o.Total
		}
	}
	return out
}

// RevenueOn sums completed orders whose completion falls on day's calendar
// date in the aggregator's zone.
func (a *Aggregator) RevenueOn(ctx context.Context, day time.Time) (revenue, count int) {
	_, completed := a.orders.Snapshot(ctx)
	for _, o := range completed {
		if o.CompletedAt != nil && SameDay(*o.CompletedAt, day, a.loc) {
			revenue += o.Total
			count++
		}
	}
	return revenue, count
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayStart returns midnight of t's calendar date in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
