package cron

import (
	"context"
	"fmt"

	"github.com/mealbridge/mealbridge-backend/pkg/logger"
)

// ListingExpiryJobParams configure the scheduled expiry sweep.
type ListingExpiryJobParams struct {
	Logger  *logger.Logger
	Sweeper listingSweeper
}

type listingSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// NewListingExpiryJob builds the cron job that expires listings past their
// safety window. The sweep also runs lazily on the read path; this job is the
// backstop for listings nobody reads.
func NewListingExpiryJob(params ListingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &listingExpiryJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type listingExpiryJob struct {
	logg    *logger.Logger
	sweeper listingSweeper
}

func (j *listingExpiryJob) Name() string { return "listing-expiry" }

func (j *listingExpiryJob) Run(ctx context.Context) error {
	expired, err := j.sweeper.Sweep(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{"expired": expired})
	if err != nil {
		j.logg.Info(logCtx, "listing expiry sweep finished with errors")
		return fmt.Errorf("listing expiry sweep: %w", err)
	}
	j.logg.Info(logCtx, "listing expiry sweep complete")
	return nil
}
