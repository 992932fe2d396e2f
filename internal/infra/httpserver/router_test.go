package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rivalscope/internal/application"
	appanalysis "github.com/bryanwahyu/rivalscope/internal/application/analysis"
	appbenchmark "github.com/bryanwahyu/rivalscope/internal/application/benchmark"
	appingest "github.com/bryanwahyu/rivalscope/internal/application/ingest"
	appinsights "github.com/bryanwahyu/rivalscope/internal/application/insights"
	apptrends "github.com/bryanwahyu/rivalscope/internal/application/trends"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
	"github.com/bryanwahyu/rivalscope/internal/testutil"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	handler http.Handler
	store   *testutil.MemStore
	oracle  *testutil.StubOracle
}

func newFixture(t *testing.T, apiKeys map[string]string) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := testutil.NewMemStore()
	oracle := &testutil.StubOracle{Label: sentiment.Positive, Confidence: 0.8}
	clock := application.FixedClock{T: now}
	cohort := []string{"brand_a", "brand_b"}

	analyzer := &appanalysis.Service{
		Store:     store,
		Sentiment: &appanalysis.SentimentScorer{Oracle: oracle, Log: log},
		Clock:     clock,
		Log:       log,
		Workers:   2,
	}
	svc := Services{
		Cohort:   cohort,
		Clock:    clock,
		Analysis: analyzer,
		Insights: &appinsights.Service{Content: store, Clock: clock, Cohort: cohort},
		Trends: &apptrends.Service{
			Aggregator: &apptrends.Aggregator{Posts: store, Clock: clock},
			Reports:    store,
			Cohort:     cohort,
			Log:        log,
		},
		Benchmark: &appbenchmark.Service{
			Engine:  &appbenchmark.Engine{Posts: store, Clock: clock},
			Reports: store,
			Cohort:  cohort,
			Log:     log,
		},
		Ingest: &appingest.Service{Store: store, Analyzer: analyzer, Clock: clock, Log: log},
	}
	return &fixture{
		handler: NewRouter(svc, Options{Log: log, APIKeys: apiKeys}),
		store:   store,
		oracle:  oracle,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPut, "/v1/accounts/brand_a", `{"followers_count": 1000, "is_verified": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	posts := `{"posts": [
		{"post_id": "p1", "account_username": "brand_a", "caption": "Big sale today! 50% discount #sale #offer",
		 "media_type": "carousel", "likes_count": 40, "comments_count": 10, "posted_at": "2024-06-09T16:00:00Z"},
		{"post_id": "p2", "account_username": "brand_a", "caption": "Learn how to style it #tips",
		 "media_type": "video", "likes_count": 20, "comments_count": 0, "posted_at": "2024-06-08T09:00:00Z"}
	]}`
	rec = f.do(t, http.MethodPost, "/v1/posts?analyze=true", posts)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIngestAndAnalyze(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	post, err := f.store.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, post.EngagementRate)
	assert.Equal(t, content.CategoryPromotional, post.ContentCategory)
	assert.Equal(t, []string{"#sale", "#offer"}, post.Hashtags)

	rec := f.do(t, http.MethodGet, "/v1/analysis/content/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	a := decode[content.Analysis](t, rec)
	assert.Equal(t, content.CategoryPromotional, a.ContentCategory)
	assert.Equal(t, "positive", a.SentimentLabel)

	calls := f.oracle.Calls()
	rec = f.do(t, http.MethodPost, "/v1/analysis/content/p1/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calls, f.oracle.Calls())
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown post", http.MethodPost, "/v1/analysis/content/missing/analyze", "", http.StatusNotFound},
		{"missing analysis", http.MethodGet, "/v1/analysis/content/missing", "", http.StatusNotFound},
		{"bad post id", http.MethodGet, "/v1/analysis/content/a;b", "", http.StatusBadRequest},
		{"no trend yet", http.MethodGet, "/v1/analysis/trends/latest", "", http.StatusNotFound},
		{"bad period", http.MethodPost, "/v1/analysis/trends/generate?period=yearly", "", http.StatusBadRequest},
		{"bad days", http.MethodGet, "/v1/analysis/sentiment/overview?days=abc", "", http.StatusBadRequest},
		{"negative days", http.MethodGet, "/v1/analysis/competitors/benchmark?days=-3", "", http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/v1/posts", "{", http.StatusBadRequest},
		{"empty batch", http.MethodPost, "/v1/analysis/content/analyze-batch", `{"post_ids": []}`, http.StatusBadRequest},
		{"post without id", http.MethodPost, "/v1/posts", `{"posts": [{"account_username": "x"}]}`, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/v1/analysis/content/category-distribution?start_date=yesterday", "", http.StatusBadRequest},
		{"bad category", http.MethodGet, "/v1/posts?content_category=memes", "", http.StatusBadRequest},
		{"sync without feed", http.MethodPost, "/v1/sync", "", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestNoDataResponses(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{
		"/v1/analysis/sentiment/overview",
		"/v1/analysis/performance/engagement?account_username=brand_a",
	} {
		rec := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]string](t, rec)
		assert.Equal(t, "no_data", body["status"], path)
	}

	rec := f.do(t, http.MethodPost, "/v1/analysis/trends/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_data", decode[map[string]string](t, rec)["status"])
	assert.Equal(t, 0, f.store.TrendCount())
}

func TestTrendGenerateThenLatest(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/v1/analysis/trends/generate?period=weekly", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[map[string]any](t, rec)
	assert.Equal(t, float64(2), generated["total_posts"])

	rec = f.do(t, http.MethodGet, "/v1/analysis/trends/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[map[string]any](t, rec)
	assert.Equal(t, generated["id"], latest["id"])
}

func TestBenchmarkAndInsights(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodGet, "/v1/analysis/competitors/benchmark?competitors=brand_a,brand_b&days=30", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/v1/analysis/competitors/benchmark/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/analysis/content/category-distribution?account_username=brand_a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dist := decode[appinsights.CategoryDistribution](t, rec)
	assert.Equal(t, 2, dist.TotalPosts)

	rec = f.do(t, http.MethodGet, "/v1/analysis/sentiment/overview?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[appinsights.SentimentOverview](t, rec)
	assert.Equal(t, 2, ov.TotalAnalyzed)
	assert.Equal(t, "positive", ov.Overall)

	rec = f.do(t, http.MethodGet, "/v1/analysis/competitors/top-content", "")
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[appinsights.TopContent](t, rec)
	require.NotEmpty(t, top.OverallTop)
	assert.Equal(t, "p1", top.OverallTop[0].PostID)

	rec = f.do(t, http.MethodGet, "/v1/posts?account_username=brand_a&page_size=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]any](t, rec)
	assert.Equal(t, float64(2), page["total"])
	assert.Len(t, page["posts"], 1)
}

func TestAuthAndProbes(t *testing.T) {
	f := newFixture(t, map[string]string{"dashboard": "k1"})

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/posts", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/live", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer k1")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/posts", nil)
	req.Header.Set("X-API-Key", "k1")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ready", "").Code)
}
