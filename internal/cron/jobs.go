package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/stats"
	"github.com/angelmondragon/orderbot/pkg/clock"
)

const (
	PendingReminderJobName = "pending_reminder"
	DailyStatsJobName      = "daily_stats"

	defaultReminderAge = 48 * time.Hour
	reportLayout       = "Jan 02, 2006"
)

type pendingLister interface {
	List(ctx context.Context, partition orders.Partition) []orders.Order
}

// PendingReminderParams configure NewPendingReminderJob.
type PendingReminderParams struct {
	Orders     pendingLister
	Notifier   notifications.Notifier
	OperatorID int64
	MinAge     time.Duration
	Clock      clock.Clock
	Location   *time.Location
	ChunkLen   int
}

// PendingReminderJob tells the operator about pending orders older than
// MinAge, oldest first. Nothing is sent when none qualify.
type PendingReminderJob struct {
	orders     pendingLister
	notifier   notifications.Notifier
	operatorID int64
	minAge     time.Duration
	clock      clock.Clock
	loc        *time.Location
	chunkLen   int
}

func NewPendingReminderJob(params PendingReminderParams) (*PendingReminderJob, error) {
	switch {
	case params.Orders == nil:
		return nil, errors.New("orders required")
	case params.Notifier == nil:
		return nil, errors.New("notifier required")
	case params.OperatorID == 0:
		return nil, errors.New("operator id required")
	}
	job := &PendingReminderJob{
		orders:     params.Orders,
		notifier:   params.Notifier,
		operatorID: params.OperatorID,
		minAge:     params.MinAge,
		clock:      params.Clock,
		loc:        params.Location,
		chunkLen:   params.ChunkLen,
	}
	if job.minAge <= 0 {
		job.minAge = defaultReminderAge
	}
	if job.clock == nil {
		job.clock = clock.Real()
	}
	if job.loc == nil {
		job.loc = time.Local
	}
	if job.chunkLen <= 0 {
		job.chunkLen = notifications.DefaultChunkLen
	}
	return job, nil
}

func (j *PendingReminderJob) Name() string { return PendingReminderJobName }

func (j *PendingReminderJob) Run(ctx context.Context) error {
	cutoff := j.clock.Now().Add(-j.minAge)

	var stale []orders.Order
	for _, o := range j.orders.List(ctx, orders.PartitionPending) {
		if o.CreatedAt.Before(cutoff) {
			stale = append(stale, o)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	sort.SliceStable(stale, func(a, b int) bool { return stale[a].CreatedAt.Before(stale[b].CreatedAt) })

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ *%d pending order(s) older than %s*", len(stale), formatAge(j.minAge))
	for _, o := range stale {
		status := "awaiting payment"
		if o.Paid() {
			status = "paid, awaiting shipment"
		}
		fmt.Fprintf(&b, "\n\n#%s  |  🆔 %d\n👤 %s\n💰 $%d  |  %s\n🕒 %s",
			o.ID, o.UserID, o.DisplayName, o.Total, status, o.CreatedAt.In(j.loc).Format(reportLayout))
	}

	for _, chunk := range notifications.Chunk(b.String(), j.chunkLen) {
		if err := j.notifier.Notify(ctx, j.operatorID, notifications.Message{Text: chunk, Markdown: true}); err != nil {
			return fmt.Errorf("send pending reminder: %w", err)
		}
	}
	return nil
}

type summarizer interface {
	Summary(ctx context.Context) stats.Summary
	RevenueOn(ctx context.Context, day time.Time) (revenue, count int)
	Location() *time.Location
}

// DailyStatsParams configure NewDailyStatsJob.
type DailyStatsParams struct {
	Stats      summarizer
	Notifier   notifications.Notifier
	OperatorID int64
	Clock      clock.Clock
	// Ledger defaults to an in-process ledger.
	Ledger ReportLedger
}

// DailyStatsJob sends the operator yesterday's revenue next to the running
// totals, at most once per reported day.
type DailyStatsJob struct {
	stats      summarizer
	notifier   notifications.Notifier
	operatorID int64
	clock      clock.Clock
	ledger     ReportLedger
}

func NewDailyStatsJob(params DailyStatsParams) (*DailyStatsJob, error) {
	switch {
	case params.Stats == nil:
		return nil, errors.New("stats required")
	case params.Notifier == nil:
		return nil, errors.New("notifier required")
	case params.OperatorID == 0:
		return nil, errors.New("operator id required")
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.Real()
	}
	ledger := params.Ledger
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &DailyStatsJob{
		stats:      params.Stats,
		notifier:   params.Notifier,
		operatorID: params.OperatorID,
		clock:      clk,
		ledger:     ledger,
	}, nil
}

func (j *DailyStatsJob) Name() string { return DailyStatsJobName }

func (j *DailyStatsJob) Run(ctx context.Context) error {
	loc := j.stats.Location()
	yesterday := stats.DayStart(j.clock.Now(), loc).AddDate(0, 0, -1)
	period := yesterday.Format("2006-01-02")
	first, err := j.ledger.Claim(ctx, DailyStatsJobName, period)
	if err != nil {
		return fmt.Errorf("claim daily stats: %w", err)
	}
	if !first {
		return nil
	}
	revenue, shipped := j.stats.RevenueOn(ctx, yesterday)
	summary := j.stats.Summary(ctx)

	text := fmt.Sprintf("📅 *Daily Report for %s*\n────────────────────\n📦 Shipped: %d\n💵 Revenue: $%d\n\n⌛ Pending Orders: %d\n💰 Total Revenue (All Time): $%d",
		yesterday.Format(reportLayout), shipped, revenue, summary.PendingCount, summary.TotalRevenue)

	if err := j.notifier.Notify(ctx, j.operatorID, notifications.Message{Text: text, Markdown: true}); err != nil {
		// Release must outlive a canceled job context.
		forgetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return multierr.Append(
			fmt.Errorf("send daily stats: %w", err),
			j.ledger.Forget(forgetCtx, DailyStatsJobName, period),
		)
	}
	return nil
}

func formatAge(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
