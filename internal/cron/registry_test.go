package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobsInOrder(t *testing.T) {
	registry := NewRegistry(nil, &stubJob{name: "a"})
	jobB := &stubJob{name: "b"}
	if err := registry.Register(jobB); err != nil {
		t.Fatalf("register: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("registry exposed its internal slice")
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "daily"})
	if err := registry.Register(&stubJob{name: "daily"}); err == nil {
		t.Fatalf("expected duplicate name to be rejected")
	}
	if len(registry.Jobs()) != 1 {
		t.Fatalf("duplicate job must not be stored")
	}
}
