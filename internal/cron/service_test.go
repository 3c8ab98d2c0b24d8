package cron

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orderbot/pkg/logger"
	"github.com/angelmondragon/orderbot/pkg/metrics"
)

type testJob struct {
	name  string
	err   error
	panic bool
	runs  int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	if t.panic {
		panic("kaboom")
	}
	return t.err
}

func newTestService(t *testing.T, lock Lock, reg *prometheus.Registry, jobs ...Job) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: &buf})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service, &buf
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	panicking := &testJob{name: "panics", panic: true}
	service, buf := newTestService(t, NewLocalLock(), reg, ok, failing, panicking)

	err := service.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected combined job failures")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected two failures, got %d: %v", got, err)
	}
	for _, job := range []*testJob{ok, failing, panicking} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
	if n := resultSeries(t, reg, metrics.CronResultFailure); n != 2 {
		t.Fatalf("expected two failure series, got %d", n)
	}
	if n := resultSeries(t, reg, metrics.CronResultSuccess); n != 1 {
		t.Fatalf("expected one success series, got %d", n)
	}
}

func resultSeries(t *testing.T, reg *prometheus.Registry, result string) int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	count := 0
	for _, mf := range families {
		if mf.GetName() != "orderbot_cron_job_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					count++
				}
			}
		}
	}
	return count
}

type slowJob struct{}

func (slowJob) Name() string { return "slow" }

func (slowJob) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestServiceBoundsEachJobWithTimeout(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}})
	after := &testJob{name: "after"}
	service, err := NewService(ServiceParams{
		Logger:     logg,
		Registry:   NewRegistry(slowJob{}, after),
		Lock:       NewLocalLock(),
		JobTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if after.runs != 1 {
		t.Fatalf("job after a timeout must still run")
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	lock := NewLocalLock()
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatalf("expected to take the lock")
	}
	job := &testJob{name: "daily"}
	reg := prometheus.NewRegistry()
	service, _ := newTestService(t, lock, reg, job)

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran while another holder owned the lock")
	}
	mfs, _ := reg.Gather()
	for _, mf := range mfs {
		if mf.GetName() == "orderbot_cron_cycles_skipped_total" && mf.GetMetric()[0].GetCounter().GetValue() != 1 {
			t.Fatalf("expected skipped cycle to be counted")
		}
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "daily"}
	service, _ := newTestService(t, NewLocalLock(), prometheus.NewRegistry(), job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: NewLocalLock()}); err == nil {
		t.Fatalf("expected logger requirement")
	}
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	if _, err := NewService(ServiceParams{Logger: logg}); err == nil {
		t.Fatalf("expected lock requirement")
	}
}

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestRedisLockExcludesSecondOwner(t *testing.T) {
	store := &memoryRedis{data: map[string]string{}}
	first, err := NewRedisLock(store, "ob:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "ob:lock:cron", time.Minute)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("second owner acquired a held lock")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("non-owner release: %v", err)
	}
	if _, held := store.data["ob:lock:cron"]; !held {
		t.Fatalf("non-owner release removed the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatalf("expected lock to be free after release")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", time.Minute); err == nil {
		t.Fatalf("expected client requirement")
	}
	if _, err := NewRedisLock(&memoryRedis{}, "", time.Minute); err == nil {
		t.Fatalf("expected key requirement")
	}
}
