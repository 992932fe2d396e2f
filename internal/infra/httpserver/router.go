package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	appanalysis "github.com/bryanwahyu/rivalscope/internal/application/analysis"
	appbenchmark "github.com/bryanwahyu/rivalscope/internal/application/benchmark"
	appingest "github.com/bryanwahyu/rivalscope/internal/application/ingest"
	appinsights "github.com/bryanwahyu/rivalscope/internal/application/insights"
	apptrends "github.com/bryanwahyu/rivalscope/internal/application/trends"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
	"github.com/bryanwahyu/rivalscope/internal/middleware"
)

const (
	maxBodyBytes = 4 << 20
	maxBatchIDs  = 500
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type Services struct {
	// Cohort is the competitor set pulled by /v1/sync.
	Cohort    []string
	Clock     application.Clock
	Analysis  *appanalysis.Service
	Insights  *appinsights.Service
	Trends    *apptrends.Service
	Benchmark *appbenchmark.Service
	Ingest    *appingest.Service
}

type Options struct {
	Log         logrus.FieldLogger
	Metrics     *middleware.Metrics
	Probes      []middleware.Probe
	APIKeys     map[string]string
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
}

type Router struct {
	svc Services
	log logrus.FieldLogger
}

func NewRouter(svc Services, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Router{svc: svc, log: log}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID, chimw.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.Logging(log))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimit(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Probes))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Probes))
	mux.Get("/live", middleware.LivenessHandler)
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Route("/analysis", func(a chi.Router) {
			a.Post("/content/analyze-batch", r.wrap(r.handleAnalyzeBatch))
			a.Get("/content/category-distribution", r.wrap(r.handleCategoryDistribution))
			a.Post("/content/{postID}/analyze", r.wrap(r.handleAnalyze))
			a.Get("/content/{postID}", r.wrap(r.handleGetAnalysis))
			a.Get("/sentiment/overview", r.wrap(r.handleSentimentOverview))
			a.Post("/trends/generate", r.wrap(r.handleGenerateTrend))
			a.Get("/trends/latest", r.wrap(r.handleLatestTrend))
			a.Get("/competitors/benchmark", r.wrap(r.handleBenchmark))
			a.Get("/competitors/benchmark/latest", r.wrap(r.handleLatestBenchmark))
			a.Get("/competitors/top-content", r.wrap(r.handleTopContent))
			a.Get("/performance/engagement", r.wrap(r.handleEngagement))
		})

		rt.Put("/accounts/{username}", r.wrap(r.handlePutAccount))
		rt.Get("/accounts/{username}", r.wrap(r.handleGetAccount))
		rt.Post("/posts", r.wrap(r.handleIngestPosts))
		rt.Get("/posts", r.wrap(r.handleListPosts))
		rt.Post("/sync", r.wrap(r.handleSync))
	})

	return mux
}

func (r *Router) now() time.Time {
	if r.svc.Clock != nil {
		return r.svc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, content.ErrNotFound), errors.Is(err, reports.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, errBadRequest), errors.Is(err, appingest.ErrInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, sentiment.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "sentiment quota exceeded")
		case errors.Is(err, appingest.ErrNoSource):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			r.log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}

func writeNoData(w http.ResponseWriter, msg string) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "no_data", "message": msg})
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("malformed body: %v", err)
	}
	return nil
}

// queryInt returns def when the parameter is absent.
func queryInt(req *http.Request, name string, def int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}

func queryBool(req *http.Request, name string) bool {
	b, _ := strconv.ParseBool(req.URL.Query().Get(name))
	return b
}

func queryDays(req *http.Request, def int) (int, error) {
	days, err := queryInt(req, "days", def)
	if err != nil {
		return 0, err
	}
	if days <= 0 {
		return 0, badRequest("days must be positive")
	}
	return middleware.ValidateDays(days, def), nil
}

func postIDParam(req *http.Request) (string, error) {
	id := chi.URLParam(req, "postID")
	if err := middleware.ValidatePostID(id); err != nil {
		return "", badRequest("%v", err)
	}
	return id, nil
}

func usernameQuery(req *http.Request) (string, error) {
	u := middleware.SanitizeString(req.URL.Query().Get("account_username"))
	if u == "" {
		return "", nil
	}
	if err := middleware.ValidateUsername(u); err != nil {
		return "", badRequest("%v", err)
	}
	return u, nil
}

// POST /v1/analysis/content/{postID}/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, err := postIDParam(req)
	if err != nil {
		return err
	}
	a, err := r.svc.Analysis.Analyze(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /v1/analysis/content/{postID}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := postIDParam(req)
	if err != nil {
		return err
	}
	a, err := r.svc.Analysis.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// POST /v1/analysis/content/analyze-batch
// Body: {"post_ids": ["..."]}
func (r *Router) handleAnalyzeBatch(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PostIDs []string `json:"post_ids"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if len(body.PostIDs) == 0 {
		return badRequest("post_ids is required")
	}
	if len(body.PostIDs) > maxBatchIDs {
		return badRequest("at most %d post_ids per batch", maxBatchIDs)
	}
	for _, id := range body.PostIDs {
		if err := middleware.ValidatePostID(id); err != nil {
			return badRequest("%v", err)
		}
	}
	return writeJSON(w, http.StatusOK, r.svc.Analysis.AnalyzeBatch(req.Context(), body.PostIDs))
}

// GET /v1/analysis/content/category-distribution?start_date=&end_date=&account_username=
func (r *Router) handleCategoryDistribution(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	start, err := middleware.ParseDate(q.Get("start_date"))
	if err != nil {
		return badRequest("%v", err)
	}
	end, err := middleware.ParseDate(q.Get("end_date"))
	if err != nil {
		return badRequest("%v", err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return badRequest("end_date is before start_date")
	}
	username, err := usernameQuery(req)
	if err != nil {
		return err
	}

	d, err := r.svc.Insights.CategoryDistribution(req.Context(), appinsights.DistributionFilter{
		Start: start, End: end, Username: username,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

// GET /v1/analysis/sentiment/overview?days=30
func (r *Router) handleSentimentOverview(w http.ResponseWriter, req *http.Request) error {
	days, err := queryDays(req, appinsights.DefaultSentimentDays)
	if err != nil {
		return err
	}
	o, err := r.svc.Insights.SentimentOverview(req.Context(), days)
	if err != nil {
		return err
	}
	if o.NoData {
		return writeNoData(w, fmt.Sprintf("no analysed posts in the last %d days", days))
	}
	return writeJSON(w, http.StatusOK, o)
}

// POST /v1/analysis/trends/generate?period=weekly
func (r *Router) handleGenerateTrend(w http.ResponseWriter, req *http.Request) error {
	period := req.URL.Query().Get("period")
	if err := middleware.ValidatePeriod(period); err != nil {
		return badRequest("%v", err)
	}
	res, err := r.svc.Trends.Generate(req.Context(), reports.ParsePeriod(period))
	if err != nil {
		return err
	}
	if res.NoData() {
		return writeNoData(w, "no posts in the analysis window")
	}
	return writeJSON(w, http.StatusOK, res.Report)
}

// GET /v1/analysis/trends/latest
func (r *Router) handleLatestTrend(w http.ResponseWriter, req *http.Request) error {
	t, err := r.svc.Trends.Latest(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, t)
}

// GET /v1/analysis/competitors/benchmark?days=30&competitors=a,b
func (r *Router) handleBenchmark(w http.ResponseWriter, req *http.Request) error {
	days, err := queryDays(req, appbenchmark.DefaultDays)
	if err != nil {
		return err
	}
	competitors := middleware.SplitList(req.URL.Query().Get("competitors"))
	for _, c := range competitors {
		if err := middleware.ValidateUsername(c); err != nil {
			return badRequest("%v", err)
		}
	}
	b, err := r.svc.Benchmark.Generate(req.Context(), competitors, days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, b)
}

// GET /v1/analysis/competitors/benchmark/latest
func (r *Router) handleLatestBenchmark(w http.ResponseWriter, req *http.Request) error {
	b, err := r.svc.Benchmark.Latest(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, b)
}

// GET /v1/analysis/competitors/top-content?days=7&competitors=a,b
func (r *Router) handleTopContent(w http.ResponseWriter, req *http.Request) error {
	days, err := queryDays(req, appinsights.DefaultTopContentDays)
	if err != nil {
		return err
	}
	t, err := r.svc.Insights.TopContent(req.Context(), middleware.SplitList(req.URL.Query().Get("competitors")), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, t)
}

// GET /v1/analysis/performance/engagement?account_username=&days=30
func (r *Router) handleEngagement(w http.ResponseWriter, req *http.Request) error {
	days, err := queryDays(req, appinsights.DefaultEngagementDays)
	if err != nil {
		return err
	}
	username, err := usernameQuery(req)
	if err != nil {
		return err
	}
	p, err := r.svc.Insights.EngagementPerformance(req.Context(), username, days)
	if err != nil {
		return err
	}
	if p.NoData {
		return writeNoData(w, fmt.Sprintf("no posts in the last %d days", days))
	}
	return writeJSON(w, http.StatusOK, p)
}

// PUT /v1/accounts/{username}
func (r *Router) handlePutAccount(w http.ResponseWriter, req *http.Request) error {
	username := chi.URLParam(req, "username")
	if err := middleware.ValidateUsername(username); err != nil {
		return badRequest("%v", err)
	}
	var a content.Account
	if err := decodeBody(w, req, &a); err != nil {
		return err
	}
	a.Username = username
	a.FullName = middleware.SanitizeString(a.FullName)
	a.Biography = middleware.SanitizeString(a.Biography)
	if err := r.svc.Ingest.UpsertAccount(req.Context(), &a); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /v1/accounts/{username}
func (r *Router) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	username := chi.URLParam(req, "username")
	if err := middleware.ValidateUsername(username); err != nil {
		return badRequest("%v", err)
	}
	a, err := r.svc.Ingest.GetAccount(req.Context(), username)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// POST /v1/posts?analyze=true
// Body: {"posts": [...]}
func (r *Router) handleIngestPosts(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Posts []*content.Post `json:"posts"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if len(body.Posts) == 0 {
		return badRequest("posts is required")
	}
	res, err := r.svc.Ingest.IngestPosts(req.Context(), body.Posts, queryBool(req, "analyze"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/posts?account_username=&content_category=&page=&page_size=
func (r *Router) handleListPosts(w http.ResponseWriter, req *http.Request) error {
	username, err := usernameQuery(req)
	if err != nil {
		return err
	}
	page, err := queryInt(req, "page", 1)
	if err != nil {
		return err
	}
	if page < 1 {
		page = 1
	}
	size, err := queryInt(req, "page_size", 0)
	if err != nil {
		return err
	}
	f := content.PostFilter{Page: page, PageSize: middleware.ValidateLimit(size)}
	if username != "" {
		f.Usernames = []string{username}
	}
	if c := req.URL.Query().Get("content_category"); c != "" {
		f.Category = content.Category(c)
		if !f.Category.Valid() {
			return badRequest("unknown content_category %q", c)
		}
	}

	posts, total, err := r.svc.Ingest.ListPosts(req.Context(), f)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"posts":     posts,
		"total":     total,
		"page":      f.Page,
		"page_size": f.PageSize,
	})
}

// POST /v1/sync?since_days=7&analyze=true
func (r *Router) handleSync(w http.ResponseWriter, req *http.Request) error {
	days, err := queryInt(req, "since_days", 7)
	if err != nil {
		return err
	}
	days = middleware.ValidateDays(days, 7)
	since := r.now().AddDate(0, 0, -days)
	res, err := r.svc.Ingest.Sync(req.Context(), r.svc.Cohort, since, queryBool(req, "analyze"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}
