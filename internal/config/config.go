package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		IdleTimeout     time.Duration `yaml:"idleTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver          string        `yaml:"driver"` // postgres | mysql
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		User            string        `yaml:"user"`
		Password        string        `yaml:"password"`
		Name            string        `yaml:"name"`
		SSLMode         string        `yaml:"sslMode"`
		MaxOpenConns    int           `yaml:"maxOpenConns"`
		MaxIdleConns    int           `yaml:"maxIdleConns"`
		ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
		Migrate         bool          `yaml:"migrate"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		Prefix     string `yaml:"prefix"`
	} `yaml:"minio"`

	Sentiment struct {
		Provider        string        `yaml:"provider"` // openai | none
		APIKey          string        `yaml:"apiKey"`
		Model           string        `yaml:"model"`
		BaseURL         string        `yaml:"baseURL"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxChars        int           `yaml:"maxChars"`
		BreakerFailures uint          `yaml:"breakerFailures"`
		BreakerWindow   uint          `yaml:"breakerWindow"`
		BreakerDelay    time.Duration `yaml:"breakerDelay"`
	} `yaml:"sentiment"`

	// Cohort is the set of competitor usernames every aggregation runs over.
	Cohort []string `yaml:"cohort"`

	Analysis struct {
		Workers int `yaml:"workers"`
	} `yaml:"analysis"`

	Source struct {
		BaseURL    string        `yaml:"baseURL"`
		Token      string        `yaml:"token"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"maxRetries"`
	} `yaml:"source"`

	Schedule struct {
		Enabled       bool          `yaml:"enabled"`
		TrendCron     string        `yaml:"trendCron"`
		TrendPeriod   string        `yaml:"trendPeriod"`
		BenchmarkCron string        `yaml:"benchmarkCron"`
		BenchmarkDays int           `yaml:"benchmarkDays"`
		SyncCron      string        `yaml:"syncCron"`
		SyncLookback  time.Duration `yaml:"syncLookback"`
		SyncAnalyze   bool          `yaml:"syncAnalyze"`
		JobTimeout    time.Duration `yaml:"jobTimeout"`
	} `yaml:"schedule"`

	// Auth maps a client name to its API key. Empty disables auth.
	Auth map[string]string `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | text
	} `yaml:"logging"`
}

// Load baca file config.yaml, lalu override dari environment (.env kalau ada).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies env overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFiles loads .env when present. Variables already set win.
func LoadEnvFiles(files ...string) []string {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

func (c *Config) applyEnv() {
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Sentiment.APIKey, "OPENAI_API_KEY")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Source.Token, "SOURCE_TOKEN")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setInt(&c.Server.Port, "PORT")
	if v := os.Getenv("COHORT"); v != "" {
		c.Cohort = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	def := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	def(&c.Server.ReadTimeout, 15*time.Second)
	def(&c.Server.WriteTimeout, 60*time.Second)
	def(&c.Server.IdleTimeout, 60*time.Second)
	def(&c.Server.ShutdownTimeout, 10*time.Second)

	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
		if c.Database.Driver == "mysql" {
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Sentiment.Provider == "" {
		c.Sentiment.Provider = "openai"
	}
	def(&c.Sentiment.Timeout, 10*time.Second)
	if c.Sentiment.MaxChars <= 0 {
		c.Sentiment.MaxChars = 512
	}

	c.Cohort = content.UniqueUsernames(c.Cohort)

	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = 4
	}
	def(&c.Source.Timeout, 15*time.Second)

	if c.Schedule.TrendCron == "" {
		c.Schedule.TrendCron = "0 0 6 * * MON"
	}
	if c.Schedule.TrendPeriod == "" {
		c.Schedule.TrendPeriod = "weekly"
	}
	if c.Schedule.BenchmarkCron == "" {
		c.Schedule.BenchmarkCron = "0 30 6 * * MON"
	}
	if c.Schedule.BenchmarkDays <= 0 {
		c.Schedule.BenchmarkDays = 30
	}
	def(&c.Schedule.SyncLookback, 7*24*time.Hour)
	def(&c.Schedule.JobTimeout, 10*time.Minute)

	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 100
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 10
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q not supported (postgres, mysql)", c.Database.Driver))
	}
	if len(c.Cohort) == 0 {
		errs = append(errs, errors.New("cohort must name at least one competitor"))
	}
	if c.Analysis.Workers <= 0 {
		errs = append(errs, errors.New("analysis.workers must be positive"))
	}
	switch c.Sentiment.Provider {
	case "openai", "none":
	default:
		errs = append(errs, fmt.Errorf("sentiment.provider %q not supported (openai, none)", c.Sentiment.Provider))
	}
	switch c.Schedule.TrendPeriod {
	case "daily", "weekly", "monthly":
	default:
		errs = append(errs, fmt.Errorf("schedule.trendPeriod %q not supported", c.Schedule.TrendPeriod))
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		errs = append(errs, errors.New("minio.endpoint and minio.bucketName are required when minio is enabled"))
	}
	if c.Schedule.SyncCron != "" && c.Source.BaseURL == "" {
		errs = append(errs, errors.New("schedule.syncCron needs source.baseURL"))
	}
	return errors.Join(errs...)
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Database.Driver == "mysql" {
		return c.MySQLDSN()
	}
	return c.PostgresDSN()
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
