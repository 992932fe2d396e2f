package trends

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

var genericStrategies = []string{
	"Post during the evening peak (18:00-22:00 local time)",
	"Favour the carousel format for higher engagement",
	"Keep a consistent posting cadence",
}

// bestCategory is the highest average engagement; the earlier entry wins a tie.
func bestCategory(perf []reports.CategoryPerformance) (reports.CategoryPerformance, bool) {
	if len(perf) == 0 {
		return reports.CategoryPerformance{}, false
	}
	best := perf[0]
	for _, cp := range perf[1:] {
		if cp.AvgEngagement > best.AvgEngagement {
			best = cp
		}
	}
	return best, true
}

func terms(tc []reports.TermCount, n int) []string {
	if len(tc) > n {
		tc = tc[:n]
	}
	out := make([]string, len(tc))
	for i, t := range tc {
		out[i] = t.Term
	}
	return out
}

// MarketInsights summarises the window as free text joined with "; ".
func MarketInsights(perf []reports.CategoryPerformance, hashtags []reports.TermCount, overall float64) string {
	var parts []string
	if best, ok := bestCategory(perf); ok {
		parts = append(parts, fmt.Sprintf("Best performing content type: %s (average engagement %.3f%%)",
			content.Category(best.Category).Label(), best.AvgEngagement))
	}
	if top := terms(hashtags, 3); len(top) > 0 {
		parts = append(parts, "Trending hashtags: "+strings.Join(top, ", "))
	}
	parts = append(parts, fmt.Sprintf("Overall average engagement: %.3f%%", overall))
	return strings.Join(parts, "; ")
}

// Strategies returns the recommended actions, data-driven ones first.
func Strategies(perf []reports.CategoryPerformance, hashtags []reports.TermCount) []string {
	var out []string
	if best, ok := bestCategory(perf); ok {
		out = append(out, fmt.Sprintf("Increase the frequency of %s content", content.Category(best.Category).Label()))
	}
	if top := terms(hashtags, 5); len(top) > 0 {
		out = append(out, "Use these trending tags: "+strings.Join(top, ", "))
	}
	return append(out, genericStrategies...)
}
