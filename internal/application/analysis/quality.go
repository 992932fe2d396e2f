package analysis

import (
	"unicode/utf8"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

// QualityScore is a weighted sum over caption, media, hashtags and posting
// time, capped at 100.
func QualityScore(p *content.Post) float64 {
	score := 30.0

	if n := utf8.RuneCountInString(p.Caption); n > 0 {
		switch {
		case n >= 100 && n <= 500:
			score += 20
		case n > 500:
			score += 15
		case n >= 50:
			score += 10
		default:
			score += 5
		}
	}

	switch p.MediaType {
	case content.MediaCarousel:
		score += 15
	case content.MediaVideo:
		score += 12
	case content.MediaImage:
		score += 10
	}

	tags := len(p.Hashtags)
	switch {
	case tags >= 5 && tags <= 15:
		score += 15
	case tags > 15:
		score += 10
	case tags >= 3:
		score += 10
	case tags > 0:
		score += 5
	}

	if p.HasPostedAt() {
		h := content.LocalHour(p.PostedAt)
		switch {
		case h >= 18 && h <= 22:
			score += 10
		case h >= 12 && h <= 16:
			score += 8
		default:
			score += 5
		}
	}

	if tags > 3 {
		score += 10
	}

	if score > 100 {
		return 100
	}
	return score
}
