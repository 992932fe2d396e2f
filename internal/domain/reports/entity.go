package reports

import "time"

// Period enum
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// ParsePeriod falls back to Weekly for anything unrecognised.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case Daily, Weekly, Monthly:
		return Period(s)
	}
	return Weekly
}

// Days returns the window length.
func (p Period) Days() int {
	switch p {
	case Daily:
		return 1
	case Monthly:
		return 30
	}
	return 7
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type CategoryPerformance struct {
	Category        string  `json:"category"`
	Count           int     `json:"count"`
	TotalEngagement float64 `json:"total_engagement"`
	AvgEngagement   float64 `json:"avg_engagement"`
}

type DailyEngagement struct {
	Date          string  `json:"date"`
	AvgEngagement float64 `json:"avg_engagement"`
}

type CompetitorShare struct {
	Username          string  `json:"username"`
	TotalPosts        int     `json:"total_posts"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	MarketShare       float64 `json:"market_share"`
}

type HourlyEngagement struct {
	Hour          int     `json:"hour"`
	Posts         int     `json:"posts"`
	AvgEngagement float64 `json:"avg_engagement"`
}

type PostingTimes struct {
	BestHours []int              `json:"best_hours"`
	Hourly    []HourlyEngagement `json:"hourly"`
}

// TrendReport snapshot for a (cohort, period) pair. Immutable once saved.
type TrendReport struct {
	ID                    string                `json:"id"`
	GeneratedAt           time.Time             `json:"generated_at"`
	Period                Period                `json:"period"`
	WindowStart           time.Time             `json:"window_start"`
	WindowEnd             time.Time             `json:"window_end"`
	AccountUsernames      []string              `json:"account_usernames"`
	TotalPosts            int                   `json:"total_posts"`
	TrendingHashtags      []TermCount           `json:"trending_hashtags"`
	TrendingTopics        []TermCount           `json:"trending_topics"`
	CategoryPerformance   []CategoryPerformance `json:"category_performance"`
	DailyEngagement       []DailyEngagement     `json:"daily_engagement"`
	MarketInsights        string                `json:"market_insights"`
	CompetitiveLandscape  []CompetitorShare     `json:"competitive_landscape"`
	RecommendedStrategies []string              `json:"recommended_strategies"`
	OptimalPostingTimes   PostingTimes          `json:"optimal_posting_times"`
	ArchiveURL            string                `json:"archive_url,omitempty"`
}

type CompetitorMetrics struct {
	Username          string  `json:"username"`
	FollowersCount    int64   `json:"followers_count"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	FollowerGrowth    float64 `json:"follower_growth"`
	TotalPosts        int     `json:"total_posts"`
	ContentDiversity  int     `json:"content_diversity"`
}

type ContentFrequency struct {
	Username      string  `json:"username"`
	TotalPosts    int     `json:"total_posts"`
	PostsPerWeek  float64 `json:"posts_per_week"`
	PostsPerMonth float64 `json:"posts_per_month"`
}

// BenchmarkReport compares a competitor set over a day window.
type BenchmarkReport struct {
	ID                string              `json:"id"`
	GeneratedAt       time.Time           `json:"generated_at"`
	Name              string              `json:"name"`
	AnalysisPeriod    string              `json:"analysis_period"`
	Days              int                 `json:"days"`
	Competitors       []string            `json:"competitors"`
	CompetitorMetrics []CompetitorMetrics `json:"competitor_metrics"`
	AvgEngagementRate float64             `json:"avg_engagement_rate"`
	AvgFollowerGrowth float64             `json:"avg_follower_growth"`
	ContentFrequency  []ContentFrequency  `json:"content_frequency"`
	Strengths         []string            `json:"strengths"`
	Weaknesses        []string            `json:"weaknesses"`
	Opportunities     []string            `json:"opportunities"`
	Threats           []string            `json:"threats"`
	Recommendations   []string            `json:"recommendations"`
	ArchiveURL        string              `json:"archive_url,omitempty"`
}
