package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	appanalysis "github.com/bryanwahyu/rivalscope/internal/application/analysis"
	appbenchmark "github.com/bryanwahyu/rivalscope/internal/application/benchmark"
	appingest "github.com/bryanwahyu/rivalscope/internal/application/ingest"
	appinsights "github.com/bryanwahyu/rivalscope/internal/application/insights"
	apptrends "github.com/bryanwahyu/rivalscope/internal/application/trends"
	"github.com/bryanwahyu/rivalscope/internal/config"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
	aiopenai "github.com/bryanwahyu/rivalscope/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/rivalscope/internal/infra/db/mysql"
	"github.com/bryanwahyu/rivalscope/internal/infra/db/postgres"
	"github.com/bryanwahyu/rivalscope/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/rivalscope/internal/infra/httpserver"
	"github.com/bryanwahyu/rivalscope/internal/infra/scheduler"
	"github.com/bryanwahyu/rivalscope/internal/infra/source/feed"
	minioStore "github.com/bryanwahyu/rivalscope/internal/infra/storage"
	"github.com/bryanwahyu/rivalscope/internal/logging"
	"github.com/bryanwahyu/rivalscope/internal/middleware"
)

func main() {
	loaded := config.LoadEnvFiles()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logging.WithService(logger, "rivalscope")
	if len(loaded) > 0 {
		log.WithField("files", loaded).Debug("env files loaded")
	}

	ctx := context.Background()

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.Database.Driver).Fatal("database connect error")
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	probes := []middleware.Probe{
		{Name: "database", Detail: cfg.Database.Driver, Critical: true, Checker: &middleware.StoreChecker{DB: db}},
	}

	// init minio
	var archive reports.Archive
	if cfg.Minio.Enabled {
		st, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.WithError(err).Fatal("minio init error")
		}
		if cfg.Minio.Prefix != "" {
			st = st.WithPrefix(cfg.Minio.Prefix)
		}
		archive = st
		probes = append(probes, middleware.Probe{Name: "archive", Detail: cfg.Minio.BucketName, Checker: st})
	}

	oracle := newOracle(cfg, log)
	if hc, ok := oracle.(middleware.HealthChecker); ok {
		probes = append(probes, middleware.Probe{Name: "sentiment", Detail: cfg.Sentiment.Model, Checker: hc})
	}

	clock := application.SystemClock{}
	analyzer := &appanalysis.Service{
		Store: store,
		Sentiment: &appanalysis.SentimentScorer{
			Oracle:   oracle,
			MaxChars: cfg.Sentiment.MaxChars,
			Log:      log,
			Metrics:  metrics,
		},
		Clock:   clock,
		Log:     log,
		Metrics: metrics,
		Workers: cfg.Analysis.Workers,
	}

	var source content.Source
	if cfg.Source.BaseURL != "" {
		source = feed.New(feed.Config{
			BaseURL:    cfg.Source.BaseURL,
			Token:      cfg.Source.Token,
			Timeout:    cfg.Source.Timeout,
			MaxRetries: cfg.Source.MaxRetries,
		})
	}

	trendSvc := &apptrends.Service{
		Aggregator: &apptrends.Aggregator{Posts: store, Clock: clock},
		Reports:    store,
		Archive:    archive,
		Cohort:     cfg.Cohort,
		Log:        log,
		Metrics:    metrics,
	}
	benchSvc := &appbenchmark.Service{
		Engine:  &appbenchmark.Engine{Posts: store, Clock: clock},
		Reports: store,
		Archive: archive,
		Cohort:  cfg.Cohort,
		Log:     log,
		Metrics: metrics,
	}
	ingestSvc := &appingest.Service{
		Store:    store,
		Analyzer: analyzer,
		Source:   source,
		Clock:    clock,
		Log:      log,
	}

	if cfg.Schedule.Enabled {
		sched := scheduler.New(log, cfg.Schedule.JobTimeout)
		jobs := []scheduler.Job{
			scheduler.TrendJob(cfg.Schedule.TrendCron, trendSvc, reports.ParsePeriod(cfg.Schedule.TrendPeriod)),
			scheduler.BenchmarkJob(cfg.Schedule.BenchmarkCron, benchSvc, cfg.Schedule.BenchmarkDays),
		}
		if cfg.Schedule.SyncCron != "" {
			jobs = append(jobs, scheduler.SyncJob(cfg.Schedule.SyncCron, ingestSvc, cfg.Cohort,
				cfg.Schedule.SyncLookback, cfg.Schedule.SyncAnalyze, clock))
		}
		for _, j := range jobs {
			if err := sched.Add(j); err != nil {
				log.WithError(err).Fatal("scheduler error")
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	defer limiter.Stop()

	handler := httpserver.NewRouter(httpserver.Services{
		Cohort:    cfg.Cohort,
		Clock:     clock,
		Analysis:  analyzer,
		Insights:  &appinsights.Service{Content: store, Clock: clock, Cohort: cfg.Cohort},
		Trends:    trendSvc,
		Benchmark: benchSvc,
		Ingest:    ingestSvc,
	}, httpserver.Options{
		Log:         log,
		Metrics:     metrics,
		Probes:      probes,
		APIKeys:     cfg.Auth,
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "cohort": cfg.Cohort}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, *sqlstore.Store, error) {
	pool := sqlstore.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	var (
		db      *sql.DB
		err     error
		migrate func(context.Context, *sql.DB) error
		newRepo func(*sql.DB) *sqlstore.Store
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.DSN(), pool)
		migrate, newRepo = mysqlp.Migrate, mysqlp.NewStore
	default:
		db, err = postgres.Connect(ctx, cfg.DSN(), pool)
		migrate, newRepo = postgres.Migrate, postgres.NewStore
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.Migrate {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := migrate(mctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, newRepo(db), nil
}

// newOracle picks the sentiment provider; without one every caption scores neutral.
func newOracle(cfg *config.Config, log logrus.FieldLogger) sentiment.Oracle {
	if cfg.Sentiment.Provider != "openai" {
		return sentiment.Unavailable{Reason: "sentiment provider disabled"}
	}
	if cfg.Sentiment.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set, sentiment scoring degrades to neutral")
		return sentiment.Unavailable{Reason: "missing api key"}
	}
	return aiopenai.NewClient(aiopenai.Config{
		APIKey:          cfg.Sentiment.APIKey,
		BaseURL:         cfg.Sentiment.BaseURL,
		Model:           cfg.Sentiment.Model,
		Timeout:         cfg.Sentiment.Timeout,
		BreakerFailures: cfg.Sentiment.BreakerFailures,
		BreakerWindow:   cfg.Sentiment.BreakerWindow,
		BreakerDelay:    cfg.Sentiment.BreakerDelay,
		Log:             log,
	})
}
