package analysis

import "github.com/bryanwahyu/rivalscope/internal/domain/content"

const maxEngagementPrediction = 0.10

// PredictEngagement estimates an engagement rate for a post. quality is the
// quality score of the post's existing analysis, nil when there is none.
func PredictEngagement(p *content.Post, quality *float64) float64 {
	pred := 0.02
	if quality != nil {
		pred += (*quality / 100) * 0.03
	}

	switch p.MediaType {
	case content.MediaCarousel:
		pred += 0.01
	case content.MediaVideo:
		pred += 0.008
	}

	if n := len(p.Hashtags); n >= 8 && n <= 12 {
		pred += 0.005
	}
	if p.SentimentScore > 0.5 {
		pred += 0.005
	}

	return clamp(pred, 0, maxEngagementPrediction)
}
