package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

const defaultSendTimeout = 10 * time.Second

type notifyMetrics interface {
	ObserveNotification(result string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveNotification(string) {}

// Async wraps a Notifier so Notify returns immediately. Each send runs on its
// own goroutine with a timeout; failures are logged and counted.
type Async struct {
	next    Notifier
	logg    *logger.Logger
	metrics notifyMetrics
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// AsyncParams configure an Async notifier.
type AsyncParams struct {
	Next    Notifier
	Logger  *logger.Logger
	Metrics notifyMetrics
	Timeout time.Duration
}

// NewAsync builds an Async notifier.
func NewAsync(params AsyncParams) (*Async, error) {
	if params.Next == nil {
		return nil, errors.New("notifier required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	a := &Async{
		next:    params.Next,
		logg:    params.Logger,
		metrics: params.Metrics,
		timeout: params.Timeout,
	}
	if a.metrics == nil {
		a.metrics = noopMetrics{}
	}
	if a.timeout <= 0 {
		a.timeout = defaultSendTimeout
	}
	return a, nil
}

// Notify schedules the send and always returns nil.
func (a *Async) Notify(ctx context.Context, userID int64, msg Message) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.metrics.ObserveNotification("dropped")
		a.logg.Warn(a.logg.WithUserID(ctx, userID), "notifier closed")
		return nil
	}
	a.wg.Add(1)
	go a.send(context.WithoutCancel(ctx), userID, msg)
	return nil
}

func (a *Async) send(ctx context.Context, userID int64, msg Message) {
	defer a.wg.Done()
	ctx = a.logg.WithUserID(ctx, userID)
	defer func() {
		if r := recover(); r != nil {
			a.metrics.ObserveNotification("error")
			a.logg.Error(ctx, "notification panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.next.Notify(sendCtx, userID, msg); err != nil {
		a.metrics.ObserveNotification("error")
		a.logg.Error(a.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "notification failed", err)
		return
	}
	a.metrics.ObserveNotification("sent")
}

// Close stops accepting sends and waits for in-flight ones until ctx ends.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
