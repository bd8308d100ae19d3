package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(ok, failing),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected each job once, got %d and %d", ok.runs, failing.runs)
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("expected lock released once, held=%v releases=%d", lock.held, lock.releases)
	}

	expected := `
# HELP storefront_job_runs_total Scheduled job runs by result.
# TYPE storefront_job_runs_total counter
storefront_job_runs_total{job="fail",result="failure"} 1
storefront_job_runs_total{job="success",result="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "storefront_job_runs_total"); err != nil {
		t.Fatalf("metrics: %v", err)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d", job.runs)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     NoopLock{},
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the initial cycle to run once, ran %d", job.runs)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without lock")
	}
}
