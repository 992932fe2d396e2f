package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

// Reports are stored whole as a JSON payload next to the columns used for
// lookups.

func (s *Store) SaveTrend(ctx context.Context, r *reports.TrendReport) error {
	const q = `
INSERT INTO trend_reports (id, period, generated_at, window_start, window_end, total_posts, archive_url, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode trend report: %w", err)
	}
	_, err = s.exec(ctx, q, r.ID, string(r.Period), r.GeneratedAt.UTC(), r.WindowStart.UTC(), r.WindowEnd.UTC(),
		r.TotalPosts, nullString(r.ArchiveURL), string(payload))
	return err
}

func (s *Store) LatestTrend(ctx context.Context) (*reports.TrendReport, error) {
	const q = `SELECT payload FROM trend_reports ORDER BY generated_at DESC, id DESC LIMIT 1`
	var payload string
	if err := s.queryRow(ctx, q).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reports.ErrNotFound
		}
		return nil, err
	}
	var r reports.TrendReport
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode trend report: %w", err)
	}
	return &r, nil
}

func (s *Store) SaveBenchmark(ctx context.Context, r *reports.BenchmarkReport) error {
	const q = `
INSERT INTO benchmark_reports (id, name, days, generated_at, avg_engagement_rate, archive_url, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode benchmark report: %w", err)
	}
	_, err = s.exec(ctx, q, r.ID, r.Name, r.Days, r.GeneratedAt.UTC(), r.AvgEngagementRate,
		nullString(r.ArchiveURL), string(payload))
	return err
}

func (s *Store) LatestBenchmark(ctx context.Context) (*reports.BenchmarkReport, error) {
	const q = `SELECT payload FROM benchmark_reports ORDER BY generated_at DESC, id DESC LIMIT 1`
	var payload string
	if err := s.queryRow(ctx, q).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reports.ErrNotFound
		}
		return nil, err
	}
	var r reports.BenchmarkReport
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode benchmark report: %w", err)
	}
	return &r, nil
}
