package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
	"github.com/bryanwahyu/rivalscope/internal/testutil"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newPipeline(t *testing.T, oracle sentiment.Oracle) (*Service, *testutil.MemStore, *countingRecorder) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	rec := &countingRecorder{}
	store := testutil.NewMemStore()
	svc := &Service{
		Store:     store,
		Sentiment: &SentimentScorer{Oracle: oracle, Log: logger, Metrics: rec},
		Clock:     application.FixedClock{T: now},
		Log:       logger,
		Metrics:   rec,
		Workers:   3,
	}
	return svc, store, rec
}

func seedPost(t *testing.T, store *testutil.MemStore, id, caption string) {
	t.Helper()
	require.NoError(t, store.UpsertPost(context.Background(), &content.Post{
		PostID:          id,
		AccountUsername: "rival",
		Caption:         caption,
		MediaType:       content.MediaCarousel,
		Hashtags:        []string{"#sale", "#discount"},
		EngagementRate:  2.5,
		PostedAt:        now.Add(-2 * time.Hour),
	}))
}

func TestAnalyzeCreatesRecordAndUpdatesPost(t *testing.T) {
	oracle := &testutil.StubOracle{Label: sentiment.Positive, Confidence: 0.8}
	svc, store, rec := newPipeline(t, oracle)
	seedPost(t, store, "p1", "Big discount sale offer on every #sale @shop")

	a, err := svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", a.PostID)
	assert.Equal(t, content.CategoryPromotional, a.ContentCategory)
	assert.InDelta(t, 0.8, a.SentimentScore, 1e-9)
	assert.Equal(t, "positive", a.SentimentLabel)
	assert.Equal(t, []string{"sale", "shop"}, a.Topics)
	assert.Equal(t, "sale", a.Keywords[0])
	assert.Equal(t, now, a.CreatedAt)
	assert.InDelta(t, 0.03, a.EngagementPrediction, 1e-9)

	post, err := store.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, content.CategoryPromotional, post.ContentCategory)
	assert.InDelta(t, 0.8, post.SentimentScore, 1e-9)
	assert.Equal(t, []string{"created"}, rec.outcomes)
}

func TestAnalyzePredictionWithoutAttachedQuality(t *testing.T) {
	svc, store, _ := newPipeline(t, &testutil.StubOracle{Label: sentiment.Neutral, Confidence: 0.5})
	seedPost(t, store, "p1", strings.Repeat("weekly sale on shoes and bags ", 5))

	a, err := svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)
	require.Greater(t, a.ContentQualityScore, 0.0)

	post, err := store.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.InDelta(t, PredictEngagement(post, nil), a.EngagementPrediction, 1e-9)
	assert.InDelta(t, 0.03, a.EngagementPrediction, 1e-9)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	oracle := &testutil.StubOracle{Label: sentiment.Negative, Confidence: 0.4}
	svc, store, _ := newPipeline(t, oracle)
	seedPost(t, store, "p1", "learning lesson skill")

	first, err := svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)
	writes := store.WriteCount()
	calls := oracle.Calls()

	second, err := svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, calls, oracle.Calls())
	assert.Equal(t, writes, store.WriteCount())
}

func TestAnalyzeMissingPost(t *testing.T) {
	svc, _, _ := newPipeline(t, &testutil.StubOracle{})
	_, err := svc.Analyze(context.Background(), "nope")
	assert.ErrorIs(t, err, content.ErrNotFound)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestAnalyzeRollsBackOnFailure(t *testing.T) {
	svc, store, rec := newPipeline(t, &testutil.StubOracle{Label: sentiment.Positive, Confidence: 0.9})
	seedPost(t, store, "p1", "community event")
	store.FailUpdateDerived = errors.New("disk full")

	_, err := svc.Analyze(context.Background(), "p1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")

	_, err = store.GetAnalysis(context.Background(), "p1")
	assert.ErrorIs(t, err, content.ErrNotFound)
	post, err := store.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, post.ContentCategory)
	assert.Equal(t, []string{"failed"}, rec.outcomes)
}

func TestAnalyzeOracleFailureDoesNotFail(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc, store, rec := newPipeline(t, &testutil.StubOracle{Err: context.DeadlineExceeded})
	svc.Sentiment.Log = logger
	seedPost(t, store, "p1", "hello followers")

	a, err := svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.SentimentScore)
	assert.Equal(t, "neutral", a.SentimentLabel)
	assert.Equal(t, []string{"timeout"}, rec.degraded)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestAnalyzeBatch(t *testing.T) {
	oracle := &testutil.StubOracle{Label: sentiment.Positive, Confidence: 0.6}
	svc, store, _ := newPipeline(t, oracle)
	ids := []string{}
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("p%d", i)
		seedPost(t, store, id, "contest prize win")
		ids = append(ids, id)
	}
	ids = append(ids, "missing")

	res := svc.AnalyzeBatch(context.Background(), ids)
	assert.Len(t, res.Analyses, 8)
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors, "missing")
	assert.Equal(t, "p0", res.Analyses[0].PostID)
	assert.Equal(t, 8, oracle.Calls())
}

func TestAnalyzeBatchSamePostTwice(t *testing.T) {
	svc, store, _ := newPipeline(t, &testutil.StubOracle{Label: sentiment.Positive, Confidence: 0.6})
	seedPost(t, store, "dup", "contest prize win")

	res := svc.AnalyzeBatch(context.Background(), []string{"dup", "dup", "dup"})
	require.Empty(t, res.Errors)
	require.Len(t, res.Analyses, 3)
	for _, a := range res.Analyses {
		assert.Equal(t, res.Analyses[0], a)
	}
}
