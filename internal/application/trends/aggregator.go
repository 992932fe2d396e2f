package trends

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/application/tally"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

const (
	topHashtags = 20
	topTopics   = 15
	dateLayout  = "2006-01-02"
)

// TrendResult is either a report or "no data" for an empty window.
type TrendResult struct {
	Report *reports.TrendReport
}

func (r TrendResult) NoData() bool { return r.Report == nil }

// Aggregator builds trend reports from stored posts and their analyses.
type Aggregator struct {
	Posts content.Repository
	Clock application.Clock
}

type memberStats struct {
	posts int
	total float64
}

type dayStats struct {
	posts int
	total float64
}

// Aggregate builds a report for the cohort over the period's window ending now.
// Posts are visited oldest first; that order is the "first seen" tie-break.
func (a *Aggregator) Aggregate(ctx context.Context, cohort []string, period reports.Period) (TrendResult, error) {
	period = reports.ParsePeriod(string(period))
	cohort = content.UniqueUsernames(cohort)
	days := period.Days()
	end := a.Clock.Now().UTC()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	posts, err := a.Posts.ListPosts(ctx, content.PostFilter{Usernames: cohort, Since: start, Until: end})
	if err != nil {
		return TrendResult{}, fmt.Errorf("list posts: %w", err)
	}
	if len(posts) == 0 {
		return TrendResult{}, nil
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].PostedAt.Equal(posts[j].PostedAt) {
			return posts[i].PostID < posts[j].PostID
		}
		return posts[i].PostedAt.Before(posts[j].PostedAt)
	})

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	analyses, err := a.Posts.ListAnalyses(ctx, ids)
	if err != nil {
		return TrendResult{}, fmt.Errorf("list analyses: %w", err)
	}

	hashtags := tally.New()
	topics := tally.New()
	categories := make(map[content.Category]*reports.CategoryPerformance)
	members := make(map[string]*memberStats)
	daily := make(map[string]*dayStats)
	totalEngagement := 0.0

	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return TrendResult{}, err
		}

		for _, tag := range p.Hashtags {
			hashtags.Add(tag)
		}
		an := analyses[p.PostID]
		if an != nil {
			for _, topic := range an.Topics {
				topics.Add(topic)
			}
		}

		category := p.ContentCategory
		if category == "" && an != nil {
			category = an.ContentCategory
		}
		if category != "" {
			cp, ok := categories[category]
			if !ok {
				cp = &reports.CategoryPerformance{Category: string(category)}
				categories[category] = cp
			}
			cp.Count++
			cp.TotalEngagement += p.EngagementRate
		}

		m, ok := members[p.AccountUsername]
		if !ok {
			m = &memberStats{}
			members[p.AccountUsername] = m
		}
		m.posts++
		m.total += p.EngagementRate

		if p.HasPostedAt() {
			key := p.PostedAt.UTC().Format(dateLayout)
			d, ok := daily[key]
			if !ok {
				d = &dayStats{}
				daily[key] = d
			}
			d.posts++
			d.total += p.EngagementRate
		}

		totalEngagement += p.EngagementRate
	}

	report := &reports.TrendReport{
		ID:                  uuid.NewString(),
		GeneratedAt:         end,
		Period:              period,
		WindowStart:         start,
		WindowEnd:           end,
		AccountUsernames:    cohort,
		TotalPosts:          len(posts),
		TrendingHashtags:    hashtags.Top(topHashtags),
		TrendingTopics:      topics.Top(topTopics),
		CategoryPerformance: categoryPerformance(categories),
		DailyEngagement:     dailySeries(daily, start, days),
	}
	report.CompetitiveLandscape = Landscape(cohort, members, len(posts))
	report.OptimalPostingTimes = OptimalPostingTimes(posts)
	overall := totalEngagement / float64(len(posts))
	report.MarketInsights = MarketInsights(report.CategoryPerformance, report.TrendingHashtags, overall)
	report.RecommendedStrategies = Strategies(report.CategoryPerformance, report.TrendingHashtags)

	return TrendResult{Report: report}, nil
}

// categoryPerformance lists present categories in definition order; unknown
// categories sort last by name.
func categoryPerformance(m map[content.Category]*reports.CategoryPerformance) []reports.CategoryPerformance {
	keys := make([]content.Category, 0, len(m))
	for c := range m {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := categoryRank(keys[i]), categoryRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	out := make([]reports.CategoryPerformance, 0, len(keys))
	for _, c := range keys {
		cp := m[c]
		cp.AvgEngagement = cp.TotalEngagement / float64(cp.Count)
		out = append(out, *cp)
	}
	return out
}

func categoryRank(c content.Category) int {
	for i, k := range content.Categories {
		if k == c {
			return i
		}
	}
	return len(content.Categories)
}

// dailySeries walks calendar days start..start+days and keeps days with posts.
func dailySeries(daily map[string]*dayStats, start time.Time, days int) []reports.DailyEngagement {
	out := []reports.DailyEngagement{}
	for i := 0; i <= days; i++ {
		key := start.AddDate(0, 0, i).Format(dateLayout)
		d, ok := daily[key]
		if !ok {
			continue
		}
		out = append(out, reports.DailyEngagement{Date: key, AvgEngagement: d.total / float64(d.posts)})
	}
	return out
}
