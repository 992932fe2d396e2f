package trends

import (
	"sort"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

const bestHourCount = 3

var defaultBestHours = []int{18, 19, 20}

// OptimalPostingTimes buckets posts by local hour and returns the best hours
// by average engagement, earliest hour first on ties.
func OptimalPostingTimes(posts []*content.Post) reports.PostingTimes {
	var counts [24]int
	var totals [24]float64
	seen := false
	for _, p := range posts {
		if !p.HasPostedAt() {
			continue
		}
		h := content.LocalHour(p.PostedAt)
		counts[h]++
		totals[h] += p.EngagementRate
		seen = true
	}
	if !seen {
		return reports.PostingTimes{
			BestHours: append([]int{}, defaultBestHours...),
			Hourly:    []reports.HourlyEngagement{},
		}
	}

	hourly := []reports.HourlyEngagement{}
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		hourly = append(hourly, reports.HourlyEngagement{
			Hour:          h,
			Posts:         counts[h],
			AvgEngagement: totals[h] / float64(counts[h]),
		})
	}

	ranked := make([]reports.HourlyEngagement, len(hourly))
	copy(ranked, hourly)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AvgEngagement > ranked[j].AvgEngagement })
	if len(ranked) > bestHourCount {
		ranked = ranked[:bestHourCount]
	}
	best := make([]int, len(ranked))
	for i, r := range ranked {
		best[i] = r.Hour
	}
	return reports.PostingTimes{BestHours: best, Hourly: hourly}
}
