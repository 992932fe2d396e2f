package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
)

// DefaultMaxSentimentChars is the longest input the oracle accepts.
const DefaultMaxSentimentChars = 512

type SentimentResult struct {
	Score      float64
	Label      sentiment.Label
	Confidence float64
}

var neutralResult = SentimentResult{Score: 0, Label: sentiment.Neutral, Confidence: 0}

// SentimentScorer wraps an Oracle and never fails: oracle errors degrade
// to a neutral, zero-confidence result.
type SentimentScorer struct {
	Oracle   sentiment.Oracle
	MaxChars int
	Log      logrus.FieldLogger
	Metrics  application.Recorder
}

func (s *SentimentScorer) Score(ctx context.Context, caption string) SentimentResult {
	text := clipRunes(strings.TrimSpace(caption), s.maxChars())
	if text == "" {
		return neutralResult
	}
	if s.Oracle == nil {
		s.degraded("unavailable", sentiment.ErrUnavailable)
		return neutralResult
	}

	label, conf, err := s.Oracle.Score(ctx, text)
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, sentiment.ErrUnavailable):
			reason = "unavailable"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		case errors.Is(err, sentiment.ErrQuotaExceeded):
			reason = "quota"
		}
		s.degraded(reason, err)
		return neutralResult
	}

	conf = clamp(conf, 0, 1)
	switch label {
	case sentiment.Positive:
		return SentimentResult{Score: conf, Label: label, Confidence: conf}
	case sentiment.Negative:
		return SentimentResult{Score: -conf, Label: label, Confidence: conf}
	}
	return SentimentResult{Score: 0, Label: sentiment.Neutral, Confidence: conf}
}

func (s *SentimentScorer) maxChars() int {
	if s.MaxChars <= 0 {
		return DefaultMaxSentimentChars
	}
	return s.MaxChars
}

func (s *SentimentScorer) degraded(reason string, err error) {
	if s.Log != nil {
		s.Log.WithError(err).WithField("reason", reason).Warn("sentiment degraded to neutral")
	}
	if s.Metrics != nil {
		s.Metrics.SentimentDegraded(reason)
	}
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
