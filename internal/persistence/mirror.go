package persistence

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

// Mirror issues durable writes without ever blocking or failing the caller.
type Mirror interface {
	UpsertUser(ctx context.Context, userID int64, displayName, username string)
	UpsertOrder(ctx context.Context, order orders.Order, status enums.OrderStatus)
	UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus, at time.Time)
	IncrementDailyStats(ctx context.Context, day string, amount int)
	DeleteOrder(ctx context.Context, id string)
	Close(ctx context.Context) error
}

type mirrorMetrics interface {
	ObserveMirrorWrite(op, result string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveMirrorWrite(string, string) {}

// ErrMirrorClosed is returned by Close when the drain deadline passes.
var ErrMirrorClosed = errors.New("persistence: mirror closed before queue drained")

type task struct {
	op  string
	key string
	ctx context.Context
	run func(ctx context.Context) error
}

// AsyncMirror queues writes onto bounded per-worker channels. Every write
// for one key (an order id, a user, a stats day) lands on the same worker,
// so writes for a row apply in the order they were issued. A full queue
// drops the write and logs it.
type AsyncMirror struct {
	writer       Writer
	logg         *logger.Logger
	metrics      mirrorMetrics
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queues []chan task
	wg     sync.WaitGroup
}

// AsyncMirrorParams configure an AsyncMirror.
type AsyncMirrorParams struct {
	Writer       Writer
	Logger       *logger.Logger
	Metrics      mirrorMetrics
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

var _ Mirror = (*AsyncMirror)(nil)

// NewAsyncMirror starts the workers.
func NewAsyncMirror(params AsyncMirrorParams) (*AsyncMirror, error) {
	if params.Writer == nil {
		return nil, errors.New("persistence writer required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	queue := params.QueueSize
	if queue <= 0 {
		queue = 1
	}
	workers := params.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := params.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	m := &AsyncMirror{
		writer:       params.Writer,
		logg:         params.Logger,
		metrics:      metrics,
		writeTimeout: timeout,
		queues:       make([]chan task, workers),
	}
	perWorker := (queue + workers - 1) / workers
	for i := range m.queues {
		m.queues[i] = make(chan task, perWorker)
		m.wg.Add(1)
		go m.worker(m.queues[i])
	}
	return m, nil
}

func (m *AsyncMirror) UpsertUser(ctx context.Context, userID int64, displayName, username string) {
	m.enqueue(ctx, "upsert_user", "user:"+strconv.FormatInt(userID, 10), func(ctx context.Context) error {
		return m.writer.UpsertUser(ctx, userID, displayName, username)
	})
}

func (m *AsyncMirror) UpsertOrder(ctx context.Context, order orders.Order, status enums.OrderStatus) {
	m.enqueue(ctx, "upsert_order", "order:"+order.ID, func(ctx context.Context) error {
		return m.writer.UpsertOrder(ctx, order, status)
	})
}

func (m *AsyncMirror) UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus, at time.Time) {
	m.enqueue(ctx, "update_order_status", "order:"+id, func(ctx context.Context) error {
		return m.writer.UpdateOrderStatus(ctx, id, status, at)
	})
}

func (m *AsyncMirror) IncrementDailyStats(ctx context.Context, day string, amount int) {
	m.enqueue(ctx, "increment_daily_stats", "day:"+day, func(ctx context.Context) error {
		return m.writer.IncrementDailyStats(ctx, day, amount)
	})
}

func (m *AsyncMirror) DeleteOrder(ctx context.Context, id string) {
	m.enqueue(ctx, "delete_order", "order:"+id, func(ctx context.Context) error {
		return m.writer.DeleteOrder(ctx, id)
	})
}

func (m *AsyncMirror) enqueue(ctx context.Context, op, key string, run func(context.Context) error) {
	// Keep request-scoped log fields but not the request's cancellation.
	t := task{op: op, key: key, ctx: context.WithoutCancel(ctx), run: run}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		m.drop(t, "mirror closed")
		return
	}
	select {
	case m.queueFor(key) <- t:
	default:
		m.drop(t, "mirror queue full")
	}
}

func (m *AsyncMirror) drop(t task, reason string) {
	m.metrics.ObserveMirrorWrite(t.op, "dropped")
	m.logg.Warn(m.logg.WithField(t.ctx, "op", t.op), reason)
}

func (m *AsyncMirror) queueFor(key string) chan task {
	if len(m.queues) == 1 {
		return m.queues[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.queues[h.Sum32()%uint32(len(m.queues))]
}

func (m *AsyncMirror) worker(tasks <-chan task) {
	defer m.wg.Done()
	for t := range tasks {
		m.run(t)
	}
}

func (m *AsyncMirror) run(t task) {
	ctx, cancel := context.WithTimeout(t.ctx, m.writeTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			m.metrics.ObserveMirrorWrite(t.op, "failed")
			m.logg.Error(m.logg.WithField(t.ctx, "op", t.op), "mirror write panicked", pkgerrors.New(pkgerrors.CodeInternal, "panic in mirror write"))
		}
	}()

	if err := t.run(ctx); err != nil {
		m.metrics.ObserveMirrorWrite(t.op, "failed")
		logCtx := m.logg.WithFields(t.ctx, map[string]any{"op": t.op, "error_dump": pkgerrors.Dump(err)})
		m.logg.Error(logCtx, "mirror write failed", err)
		return
	}
	m.metrics.ObserveMirrorWrite(t.op, "ok")
}

// Close stops accepting writes and waits for queued ones to finish or for
// ctx to expire.
func (m *AsyncMirror) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for _, q := range m.queues {
			close(q)
		}
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrMirrorClosed
	}
}

// Noop discards every write. It is used when persistence is disabled.
type Noop struct{}

var _ Mirror = Noop{}

func (Noop) UpsertUser(context.Context, int64, string, string)                       {}
func (Noop) UpsertOrder(context.Context, orders.Order, enums.OrderStatus)            {}
func (Noop) UpdateOrderStatus(context.Context, string, enums.OrderStatus, time.Time) {}
func (Noop) IncrementDailyStats(context.Context, string, int)                        {}
func (Noop) DeleteOrder(context.Context, string)                                     {}
func (Noop) Close(context.Context) error                                             { return nil }
