package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const defaultLedgerTTL = 72 * time.Hour

// ReportLedger remembers which report periods were already sent so a restart
// or a second replica does not send them again.
type ReportLedger interface {
	// Claim records job/period and reports whether this caller is the first.
	Claim(ctx context.Context, job, period string) (bool, error)
	// Forget drops a claim whose report could not be delivered.
	Forget(ctx context.Context, job, period string) error
}

// RedisLedger keeps claims as expiring Redis keys under prefix.
type RedisLedger struct {
	client redisStore
	prefix string
	ttl    time.Duration
}

func NewRedisLedger(client redisStore, prefix string, ttl time.Duration) (*RedisLedger, error) {
	switch {
	case client == nil:
		return nil, errors.New("cron: redis ledger needs a client")
	case prefix == "":
		return nil, errors.New("cron: redis ledger needs a key prefix")
	}
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl}, nil
}

func (l *RedisLedger) key(job, period string) string {
	return l.prefix + ":" + job + ":" + period
}

func (l *RedisLedger) Claim(ctx context.Context, job, period string) (bool, error) {
	won, err := l.client.SetNX(ctx, l.key(job, period), time.Now().UTC().Format(time.RFC3339), l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", l.key(job, period), err)
	}
	return won, nil
}

func (l *RedisLedger) Forget(ctx context.Context, job, period string) error {
	if err := l.client.Del(ctx, l.key(job, period)); err != nil {
		return fmt.Errorf("forget %s: %w", l.key(job, period), err)
	}
	return nil
}

// MemoryLedger keeps claims for the life of the process.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[string]struct{})}
}

func (l *MemoryLedger) Claim(_ context.Context, job, period string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := job + ":" + period
	if _, ok := l.claimed[k]; ok {
		return false, nil
	}
	l.claimed[k] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Forget(_ context.Context, job, period string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, job+":"+period)
	return nil
}
