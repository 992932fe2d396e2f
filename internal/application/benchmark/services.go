package benchmark

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

type Service struct {
	Engine  *Engine
	Reports reports.Repository
	Archive reports.Archive
	// Cohort is used when the caller names no competitors.
	Cohort  []string
	Log     logrus.FieldLogger
	Metrics application.Recorder
}

func (s *Service) Generate(ctx context.Context, competitors []string, days int) (*reports.BenchmarkReport, error) {
	if len(competitors) == 0 {
		competitors = s.Cohort
	}
	r, err := s.Engine.Benchmark(ctx, competitors, days)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("benchmarks/%d-days/%s.json", r.Days, r.ID)
	err = application.ArchiveThenSave(ctx, s.Archive, s.Log, key, r,
		func(url string) { r.ArchiveURL = url },
		func() error { return s.Reports.SaveBenchmark(ctx, r) },
	)
	if err != nil {
		return nil, fmt.Errorf("save benchmark report: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.ReportGenerated("benchmark")
	}
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"report_id":   r.ID,
			"days":        r.Days,
			"competitors": len(r.CompetitorMetrics),
		}).Info("benchmark report generated")
	}
	return r, nil
}

func (s *Service) Latest(ctx context.Context) (*reports.BenchmarkReport, error) {
	return s.Reports.LatestBenchmark(ctx)
}
