package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

// Service is the content analysis pipeline. A post is analysed at most once.
type Service struct {
	Store     content.Store
	Sentiment *SentimentScorer
	Clock     application.Clock
	Log       logrus.FieldLogger
	Metrics   application.Recorder
	// Workers bounds AnalyzeBatch concurrency.
	Workers int
}

// Analyze returns the analysis record of a post, computing and persisting it
// on first use.
func (s *Service) Analyze(ctx context.Context, postID string) (*content.Analysis, error) {
	existing, err := s.Store.GetAnalysis(ctx, postID)
	if err == nil {
		s.record("cached")
		return existing, nil
	}
	if !errors.Is(err, content.ErrNotFound) {
		return nil, fmt.Errorf("lookup analysis %s: %w", postID, err)
	}

	post, err := s.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	a := s.compute(ctx, post)

	err = s.Store.WithinTx(ctx, func(tx content.Repository) error {
		if err := tx.CreateAnalysis(ctx, a); err != nil {
			return err
		}
		return tx.UpdateDerived(ctx, post.PostID, a.ContentCategory, a.SentimentScore)
	})
	if errors.Is(err, content.ErrAlreadyExists) {
		// lost the race against a concurrent analysis of the same post
		winner, gerr := s.Store.GetAnalysis(ctx, postID)
		if gerr != nil {
			return nil, fmt.Errorf("reload analysis %s: %w", postID, gerr)
		}
		s.record("cached")
		return winner, nil
	}
	if err != nil {
		s.record("failed")
		return nil, fmt.Errorf("persist analysis %s: %w", postID, err)
	}

	s.record("created")
	s.logger().WithFields(logrus.Fields{
		"post_id":  postID,
		"category": a.ContentCategory,
		"quality":  a.ContentQualityScore,
	}).Debug("post analysed")
	return a, nil
}

// Get returns the stored analysis for a post or content.ErrNotFound.
func (s *Service) Get(ctx context.Context, postID string) (*content.Analysis, error) {
	return s.Store.GetAnalysis(ctx, postID)
}

func (s *Service) compute(ctx context.Context, post *content.Post) *content.Analysis {
	category, catConf := Classify(post.Caption)

	sent := neutralResult
	if s.Sentiment != nil {
		sent = s.Sentiment.Score(ctx, post.Caption)
	}

	quality := QualityScore(post)

	return &content.Analysis{
		PostID:               post.PostID,
		ContentCategory:      category,
		CategoryConfidence:   catConf,
		SentimentScore:       sent.Score,
		SentimentLabel:       string(sent.Label),
		Confidence:           sent.Confidence,
		Keywords:             ExtractKeywords(post.Caption),
		Topics:               ExtractTopics(post.Caption),
		ContentQualityScore:  quality,
		// a post only reaches compute without a record, so no quality score is attached
		EngagementPrediction: PredictEngagement(post, nil),
		CreatedAt:            s.now(),
	}
}

func (s *Service) record(outcome string) {
	if s.Metrics != nil {
		s.Metrics.AnalysisCompleted(outcome)
	}
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
