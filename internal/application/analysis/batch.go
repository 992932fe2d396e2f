package analysis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

const defaultWorkers = 4

// BatchResult keeps per-post outcomes; one failing post never aborts the rest.
type BatchResult struct {
	Analyses []*content.Analysis `json:"analyses"`
	Errors   map[string]string   `json:"errors,omitempty"`
}

func (s *Service) AnalyzeBatch(ctx context.Context, postIDs []string) *BatchResult {
	res := &BatchResult{Analyses: make([]*content.Analysis, 0, len(postIDs))}
	results := make([]*content.Analysis, len(postIDs))

	var mu sync.Mutex
	errs := make(map[string]string)

	var g errgroup.Group
	g.SetLimit(s.workers())
	for i, id := range postIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs[id] = err.Error()
				mu.Unlock()
				return nil
			}
			a, err := s.Analyze(ctx, id)
			if err != nil {
				s.logger().WithError(err).WithField("post_id", id).Warn("batch analysis failed")
				mu.Lock()
				errs[id] = err.Error()
				mu.Unlock()
				return nil
			}
			results[i] = a
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range results {
		if a != nil {
			res.Analyses = append(res.Analyses, a)
		}
	}
	if len(errs) > 0 {
		res.Errors = errs
	}
	return res
}

func (s *Service) workers() int {
	if s.Workers <= 0 {
		return defaultWorkers
	}
	return s.Workers
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}
