package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
)

const (
	DefaultSentimentDays   = 30
	DefaultEngagementDays  = 30
	DefaultTopContentDays  = 7
	topPerCompetitor       = 5
	topOverall             = 10
	captionPreviewRunes    = 200
	uncategorized          = "unanalyzed"
	overallSentimentMargin = 0.1
)

// Service answers read-only questions over posts and analyses.
type Service struct {
	Content content.Repository
	Clock   application.Clock
	Cohort  []string
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type TimeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type CategoryDistribution struct {
	TotalPosts   int             `json:"total_posts"`
	Distribution []CategoryCount `json:"category_distribution"`
	TimeRange    TimeRange       `json:"time_range"`
}

type DistributionFilter struct {
	Start    time.Time
	End      time.Time
	Username string
}

// CategoryDistribution counts posts per category; posts not analysed yet are
// reported as "unanalyzed".
func (s *Service) CategoryDistribution(ctx context.Context, f DistributionFilter) (*CategoryDistribution, error) {
	pf := content.PostFilter{Since: f.Start, Until: f.End}
	if f.Username != "" {
		pf.Usernames = []string{f.Username}
	}
	posts, err := s.Content.ListPosts(ctx, pf)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	counts := make(map[string]int)
	for _, p := range posts {
		key := string(p.ContentCategory)
		if key == "" {
			key = uncategorized
		}
		counts[key]++
	}

	out := &CategoryDistribution{TotalPosts: len(posts), Distribution: []CategoryCount{}}
	for _, c := range content.Categories {
		if n, ok := counts[string(c)]; ok {
			out.Distribution = append(out.Distribution, CategoryCount{Category: string(c), Count: n})
			delete(counts, string(c))
		}
	}
	rest := make([]string, 0, len(counts))
	for k := range counts {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		out.Distribution = append(out.Distribution, CategoryCount{Category: k, Count: counts[k]})
	}

	if !f.Start.IsZero() {
		st := f.Start
		out.TimeRange.Start = &st
	}
	if !f.End.IsZero() {
		en := f.End
		out.TimeRange.End = &en
	}
	return out, nil
}

type SentimentOverview struct {
	NoData        bool           `json:"-"`
	Days          int            `json:"period_days"`
	TotalAnalyzed int            `json:"total_analyzed"`
	Distribution  map[string]int `json:"sentiment_distribution"`
	AverageScore  float64        `json:"average_sentiment_score"`
	Overall       string         `json:"overall_sentiment"`
}

// SentimentOverview summarises analyses of posts published in the last days.
func (s *Service) SentimentOverview(ctx context.Context, days int) (*SentimentOverview, error) {
	if days <= 0 {
		days = DefaultSentimentDays
	}
	now := s.Clock.Now().UTC()
	analyses, err := s.Content.ListAnalysesBetween(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	out := &SentimentOverview{Days: days}
	if len(analyses) == 0 {
		out.NoData = true
		return out, nil
	}

	out.Distribution = map[string]int{
		string(sentiment.Positive): 0,
		string(sentiment.Negative): 0,
		string(sentiment.Neutral):  0,
	}
	total := 0.0
	for _, a := range analyses {
		out.Distribution[string(sentiment.ParseLabel(a.SentimentLabel))]++
		total += a.SentimentScore
	}
	out.TotalAnalyzed = len(analyses)
	out.AverageScore = total / float64(len(analyses))
	switch {
	case out.AverageScore > overallSentimentMargin:
		out.Overall = string(sentiment.Positive)
	case out.AverageScore < -overallSentimentMargin:
		out.Overall = string(sentiment.Negative)
	default:
		out.Overall = string(sentiment.Neutral)
	}
	return out, nil
}

type CategoryEngagement struct {
	Category      string  `json:"category"`
	Posts         int     `json:"posts"`
	AvgEngagement float64 `json:"avg_engagement"`
}

type EngagementPerformance struct {
	NoData            bool                 `json:"-"`
	Username          string               `json:"account_username,omitempty"`
	Days              int                  `json:"period_days"`
	TotalPosts        int                  `json:"total_posts"`
	AvgEngagementRate float64              `json:"average_engagement_rate"`
	ByCategory        []CategoryEngagement `json:"category_performance"`
	BestCategory      string               `json:"best_performing_category,omitempty"`
}

// EngagementPerformance reports average engagement overall and per category
// for one account, or every account when username is empty.
func (s *Service) EngagementPerformance(ctx context.Context, username string, days int) (*EngagementPerformance, error) {
	if days <= 0 {
		days = DefaultEngagementDays
	}
	now := s.Clock.Now().UTC()
	pf := content.PostFilter{Since: now.AddDate(0, 0, -days), Until: now}
	if username != "" {
		pf.Usernames = []string{username}
	}
	posts, err := s.Content.ListPosts(ctx, pf)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := &EngagementPerformance{Username: username, Days: days, ByCategory: []CategoryEngagement{}}
	if len(posts) == 0 {
		out.NoData = true
		return out, nil
	}

	type acc struct {
		n     int
		total float64
	}
	byCat := make(map[content.Category]*acc)
	total := 0.0
	for _, p := range posts {
		total += p.EngagementRate
		if p.ContentCategory == "" {
			continue
		}
		a, ok := byCat[p.ContentCategory]
		if !ok {
			a = &acc{}
			byCat[p.ContentCategory] = a
		}
		a.n++
		a.total += p.EngagementRate
	}
	out.TotalPosts = len(posts)
	out.AvgEngagementRate = total / float64(len(posts))

	bestAvg := 0.0
	for _, c := range content.Categories {
		a, ok := byCat[c]
		if !ok {
			continue
		}
		avg := a.total / float64(a.n)
		out.ByCategory = append(out.ByCategory, CategoryEngagement{Category: string(c), Posts: a.n, AvgEngagement: avg})
		if out.BestCategory == "" || avg > bestAvg {
			out.BestCategory, bestAvg = string(c), avg
		}
	}
	return out, nil
}
