package trends

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

type Service struct {
	Aggregator *Aggregator
	Reports    reports.Repository
	Archive    reports.Archive
	Cohort     []string
	Log        logrus.FieldLogger
	Metrics    application.Recorder
}

// Generate aggregates the configured cohort and persists the report.
// An empty window yields a no-data result and nothing is written.
func (s *Service) Generate(ctx context.Context, period reports.Period) (TrendResult, error) {
	res, err := s.Aggregator.Aggregate(ctx, s.Cohort, period)
	if err != nil {
		return TrendResult{}, err
	}
	if res.NoData() {
		s.logger().WithField("period", period).Info("trend generation skipped: no posts in window")
		return res, nil
	}

	r := res.Report
	key := fmt.Sprintf("trends/%s/%s.json", r.Period, r.ID)
	err = application.ArchiveThenSave(ctx, s.Archive, s.Log, key, r,
		func(url string) { r.ArchiveURL = url },
		func() error { return s.Reports.SaveTrend(ctx, r) },
	)
	if err != nil {
		return TrendResult{}, fmt.Errorf("save trend report: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.ReportGenerated("trend")
	}
	s.logger().WithFields(logrus.Fields{
		"report_id": r.ID,
		"period":    r.Period,
		"posts":     r.TotalPosts,
	}).Info("trend report generated")
	return res, nil
}

// Latest returns the newest persisted report or reports.ErrNotFound.
func (s *Service) Latest(ctx context.Context) (*reports.TrendReport, error) {
	return s.Reports.LatestTrend(ctx)
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
