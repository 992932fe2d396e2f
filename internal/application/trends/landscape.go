package trends

import "github.com/bryanwahyu/rivalscope/internal/domain/reports"

// Landscape reports each cohort member's share of the window's posts, in
// cohort order. Members without posts are left out.
func Landscape(cohort []string, members map[string]*memberStats, total int) []reports.CompetitorShare {
	out := []reports.CompetitorShare{}
	if total == 0 {
		return out
	}
	for _, username := range cohort {
		m, ok := members[username]
		if !ok || m.posts == 0 {
			continue
		}
		out = append(out, reports.CompetitorShare{
			Username:          username,
			TotalPosts:        m.posts,
			AvgEngagementRate: m.total / float64(m.posts),
			MarketShare:       float64(m.posts) / float64(total),
		})
	}
	return out
}
