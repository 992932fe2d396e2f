package benchmark

import (
	"fmt"

	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

var (
	marketOpportunities = []string{
		"The online K-12 education market in Saudi Arabia keeps growing",
		"Education brands are making more use of social media marketing",
		"Parents increasingly look for quality online education",
	}
	marketThreats = []string{
		"Competition is intensifying",
		"Users expect higher content quality",
		"Platform algorithm changes may reduce reach",
	}
)

// outperformFactor marks a competitor worth learning from.
const outperformFactor = 1.2

type SWOTResult struct {
	Strengths     []string
	Weaknesses    []string
	Opportunities []string
	Threats       []string
}

// SWOT names the strongest and weakest competitor by average engagement;
// the earlier competitor wins a tie. Opportunities and threats are fixed
// market statements.
func SWOT(metrics []reports.CompetitorMetrics) SWOTResult {
	res := SWOTResult{
		Strengths:     []string{},
		Weaknesses:    []string{},
		Opportunities: append([]string{}, marketOpportunities...),
		Threats:       append([]string{}, marketThreats...),
	}
	if len(metrics) == 0 {
		return res
	}

	best, worst := metrics[0], metrics[0]
	for _, m := range metrics[1:] {
		if m.AvgEngagementRate > best.AvgEngagementRate {
			best = m
		}
		if m.AvgEngagementRate < worst.AvgEngagementRate {
			worst = m
		}
	}
	res.Strengths = append(res.Strengths,
		fmt.Sprintf("%s has the highest average engagement (%.3f%%)", best.Username, best.AvgEngagementRate))
	res.Weaknesses = append(res.Weaknesses,
		fmt.Sprintf("%s has the lowest average engagement (%.3f%%)", worst.Username, worst.AvgEngagementRate))
	return res
}

// Recommendations flags standout competitors, then adds advice anchored to mean.
func Recommendations(metrics []reports.CompetitorMetrics, mean float64) []string {
	var out []string
	for _, m := range metrics {
		if m.AvgEngagementRate > mean*outperformFactor {
			out = append(out, fmt.Sprintf("Learn from %s's content strategy (average engagement %.3f%%)",
				m.Username, m.AvgEngagementRate))
		}
	}
	return append(out,
		fmt.Sprintf("Target an engagement rate of at least the market average of %.3f%%", mean),
		"Increase content diversity",
		"Optimise posting times",
		"Reply to comments and interact with followers more",
	)
}
