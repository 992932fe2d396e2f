package sentiment

import (
	"context"
	"errors"
)

type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// ParseLabel maps provider output onto a Label; unknown values are neutral.
func ParseLabel(s string) Label {
	switch Label(s) {
	case Positive, Negative:
		return Label(s)
	}
	return Neutral
}

// ErrUnavailable indicates the oracle failed to initialise or is switched off.
var ErrUnavailable = errors.New("sentiment oracle unavailable")

// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("sentiment quota exceeded")

// Oracle scores a short text. Confidence is in [0,1].
type Oracle interface {
	Score(ctx context.Context, text string) (Label, float64, error)
}

// Unavailable is the oracle used when no provider could be set up.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Score(context.Context, string) (Label, float64, error) {
	return Neutral, 0, ErrUnavailable
}
