package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mealbridge/mealbridge-backend/pkg/logger"
)

type stubRetentionRepo struct {
	deleted int64
	err     error
	cutoff  time.Time
}

func (s *stubRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestOutboxRetentionJobDeletesOldRows(t *testing.T) {
	repo := &stubRetentionRepo{deleted: 12}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: repo,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := now.Add(-7 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
}

func TestOutboxRetentionJobDefaultsRetention(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: &stubRetentionRepo{},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if got := job.(*outboxRetentionJob).retention; got != outboxRetentionDays {
		t.Fatalf("expected default retention %d, got %d", outboxRetentionDays, got)
	}
}

func TestOutboxRetentionJobWrapsError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: &stubRetentionRepo{err: errors.New("timeout")},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
