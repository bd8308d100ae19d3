package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestOutboxRetentionJobDeletesPublishedRows(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPruner{}
	job := newOutboxRetentionJob(t, repo, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-defaultOutboxRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestOutboxRetentionJobHonoursConfiguredDays(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPruner{}
	job := newOutboxRetentionJob(t, repo, 3)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-72 * time.Hour); !repo.lastCutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.lastCutoff)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeOutboxPruner{err: errors.New("boom")}
	job := newOutboxRetentionJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newOutboxRetentionJob(t *testing.T, repo *fakeOutboxPruner, days int) *outboxRetentionJob {
	t.Helper()
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        logger.Nop(),
		DB:            passthroughTx{},
		Repository:    repo,
		RetentionDays: days,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeOutboxPruner struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeOutboxPruner) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
