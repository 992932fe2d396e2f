package reports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no report has been generated yet.
var ErrNotFound = errors.New("reports: not found")

// Repository port (interface untuk persistence)
type Repository interface {
	SaveTrend(ctx context.Context, r *TrendReport) error
	LatestTrend(ctx context.Context) (*TrendReport, error)
	SaveBenchmark(ctx context.Context, r *BenchmarkReport) error
	LatestBenchmark(ctx context.Context) (*BenchmarkReport, error)
}

// Archive port: durable copy of every generated report.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
	Remove(ctx context.Context, key string) error
}
