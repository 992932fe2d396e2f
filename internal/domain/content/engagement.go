package content

import "math"

// EngagementRate returns (likes+comments)/followers*100 rounded to 4 decimals,
// or 0 when the follower count is unknown.
func EngagementRate(likes, comments, followers int64) float64 {
	if followers <= 0 {
		return 0
	}
	rate := float64(likes+comments) / float64(followers) * 100
	return math.Round(rate*10000) / 10000
}
