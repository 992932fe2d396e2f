package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

const DefaultDays = 30

// Engine compares competitors over a trailing window of days.
type Engine struct {
	Posts content.Repository
	Clock application.Clock
}

// Benchmark builds a report for competitors. Competitors without an account
// or without posts in the window are listed but carry no metrics, and do not
// count toward the averages.
func (e *Engine) Benchmark(ctx context.Context, competitors []string, days int) (*reports.BenchmarkReport, error) {
	if days <= 0 {
		days = DefaultDays
	}
	competitors = content.UniqueUsernames(competitors)
	now := e.Clock.Now().UTC()
	since := now.Add(-time.Duration(days) * 24 * time.Hour)

	report := &reports.BenchmarkReport{
		ID:                uuid.NewString(),
		GeneratedAt:       now,
		Name:              fmt.Sprintf("Competitor benchmark - %d days", days),
		AnalysisPeriod:    fmt.Sprintf("%d days", days),
		Days:              days,
		Competitors:       competitors,
		CompetitorMetrics: []reports.CompetitorMetrics{},
		ContentFrequency:  []reports.ContentFrequency{},
	}

	for _, username := range competitors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		account, err := e.Posts.GetAccount(ctx, username)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get account %s: %w", username, err)
		}

		posts, err := e.Posts.ListPosts(ctx, content.PostFilter{Usernames: []string{username}, Since: since, Until: now})
		if err != nil {
			return nil, fmt.Errorf("list posts %s: %w", username, err)
		}
		if len(posts) == 0 {
			continue
		}

		total := 0.0
		categories := make(map[content.Category]struct{})
		for _, p := range posts {
			total += p.EngagementRate
			if p.ContentCategory != "" {
				categories[p.ContentCategory] = struct{}{}
			}
		}
		n := len(posts)

		report.CompetitorMetrics = append(report.CompetitorMetrics, reports.CompetitorMetrics{
			Username:          username,
			FollowersCount:    account.FollowersCount,
			AvgEngagementRate: total / float64(n),
			FollowerGrowth:    0, // needs follower history, which is not tracked
			TotalPosts:        n,
			ContentDiversity:  len(categories),
		})
		report.ContentFrequency = append(report.ContentFrequency, reports.ContentFrequency{
			Username:      username,
			TotalPosts:    n,
			PostsPerWeek:  float64(n) / (float64(days) / 7),
			PostsPerMonth: float64(n) / (float64(days) / 30),
		})
	}

	if len(report.CompetitorMetrics) > 0 {
		sumER, sumGrowth := 0.0, 0.0
		for _, m := range report.CompetitorMetrics {
			sumER += m.AvgEngagementRate
			sumGrowth += m.FollowerGrowth
		}
		count := float64(len(report.CompetitorMetrics))
		report.AvgEngagementRate = sumER / count
		report.AvgFollowerGrowth = sumGrowth / count
	}

	swot := SWOT(report.CompetitorMetrics)
	report.Strengths = swot.Strengths
	report.Weaknesses = swot.Weaknesses
	report.Opportunities = swot.Opportunities
	report.Threats = swot.Threats
	report.Recommendations = Recommendations(report.CompetitorMetrics, report.AvgEngagementRate)
	return report, nil
}
