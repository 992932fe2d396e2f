package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/rivalscope/internal/application"
	appbenchmark "github.com/bryanwahyu/rivalscope/internal/application/benchmark"
	appingest "github.com/bryanwahyu/rivalscope/internal/application/ingest"
	apptrends "github.com/bryanwahyu/rivalscope/internal/application/trends"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

func TrendJob(spec string, svc *apptrends.Service, period reports.Period) Job {
	return Job{
		Name: "trend-" + string(period),
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := svc.Generate(ctx, period)
			return err
		},
	}
}

// BenchmarkJob benchmarks the service's configured cohort.
func BenchmarkJob(spec string, svc *appbenchmark.Service, days int) Job {
	return Job{
		Name: fmt.Sprintf("benchmark-%dd", days),
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := svc.Generate(ctx, nil, days)
			return err
		},
	}
}

// SyncJob pulls the cohort's posts published within lookback.
func SyncJob(spec string, svc *appingest.Service, cohort []string, lookback time.Duration, analyze bool, clock application.Clock) Job {
	return Job{
		Name: "sync",
		Spec: spec,
		Run: func(ctx context.Context) error {
			res, err := svc.Sync(ctx, cohort, clock.Now().Add(-lookback), analyze)
			if err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("sync failed for %d of %d accounts", len(res.Errors), len(cohort))
			}
			return nil
		},
	}
}
