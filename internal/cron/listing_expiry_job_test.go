package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/mealbridge/mealbridge-backend/pkg/logger"
)

type stubSweeper struct {
	expired int
	err     error
	calls   int
}

func (s *stubSweeper) Sweep(context.Context) (int, error) {
	s.calls++
	return s.expired, s.err
}

func TestListingExpiryJobRunsSweep(t *testing.T) {
	sweeper := &stubSweeper{expired: 3}
	job, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "listing-expiry" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}
}

func TestListingExpiryJobPropagatesSweepError(t *testing.T) {
	sweeper := &stubSweeper{expired: 1, err: errors.New("listing 42: db down")}
	job, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestListingExpiryJobRequiresSweeper(t *testing.T) {
	_, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
