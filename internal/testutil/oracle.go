package testutil

import (
	"context"
	"sync/atomic"

	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
)

// StubOracle returns a fixed answer and counts calls.
type StubOracle struct {
	Label      sentiment.Label
	Confidence float64
	Err        error
	calls      atomic.Int64
	LastText   atomic.Value
}

func (o *StubOracle) Score(_ context.Context, text string) (sentiment.Label, float64, error) {
	o.calls.Add(1)
	o.LastText.Store(text)
	if o.Err != nil {
		return sentiment.Neutral, 0, o.Err
	}
	return o.Label, o.Confidence, nil
}

func (o *StubOracle) Calls() int { return int(o.calls.Load()) }

// Text returns the last input passed to Score.
func (o *StubOracle) Text() string {
	s, _ := o.LastText.Load().(string)
	return s
}

// MemArchive is an in-memory reports.Archive.
type MemArchive struct {
	Objects map[string][]byte
	Removed []string
	PutErr  error
}

func NewMemArchive() *MemArchive {
	return &MemArchive{Objects: make(map[string][]byte)}
}

func (a *MemArchive) Put(_ context.Context, key string, body []byte) (string, error) {
	if a.PutErr != nil {
		return "", a.PutErr
	}
	a.Objects[key] = body
	return "mem://" + key, nil
}

func (a *MemArchive) Remove(_ context.Context, key string) error {
	delete(a.Objects, key)
	a.Removed = append(a.Removed, key)
	return nil
}
