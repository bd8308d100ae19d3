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

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	expiry := &stubJob{name: "order-expiry"}
	retention := &stubJob{name: "outbox-retention"}
	registry := NewRegistry(expiry, nil)
	registry.Register(nil)
	registry.Register(retention)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != expiry || jobs[1] != retention {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("Jobs must return a copy")
	}
}
