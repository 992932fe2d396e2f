package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const probeTimeout = 2 * time.Second

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// Probe is one dependency reported on /health. A failing critical probe
// makes the service unhealthy and not ready; any other failure only degrades it.
type Probe struct {
	Name     string
	Detail   string // driver, bucket, model
	Critical bool
	Checker  HealthChecker
}

// StoreChecker pings the content store's connection pool.
type StoreChecker struct {
	DB *sql.DB
}

func (s *StoreChecker) Check(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

type HealthStatus struct {
	Status    string                 `json:"status"` // healthy | degraded | unhealthy
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Critical  bool   `json:"critical"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

func runProbes(ctx context.Context, probes []Probe) (HealthStatus, bool) {
	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(probes)),
	}
	ready := true
	for _, p := range probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		started := time.Now()
		err := p.Checker.Check(pctx)
		cancel()

		cs := CheckStatus{
			Status:    "healthy",
			Detail:    p.Detail,
			Critical:  p.Critical,
			LatencyMS: time.Since(started).Milliseconds(),
		}
		if err != nil {
			cs.Status = "unhealthy"
			cs.Message = err.Error()
			if p.Critical {
				ready = false
				health.Status = "unhealthy"
			} else if health.Status == "healthy" {
				health.Status = "degraded"
			}
		}
		health.Checks[p.Name] = cs
	}
	return health, ready
}

// HealthHandler reports every probe. Only a critical failure answers 503.
func HealthHandler(probes []Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health, ready := runProbes(r.Context(), probes)
		statusCode := http.StatusOK
		if !ready {
			statusCode = http.StatusServiceUnavailable
		}
		writeHealth(w, statusCode, health)
	}
}

// ReadinessHandler answers 200 once every critical probe passes.
func ReadinessHandler(probes []Probe) http.HandlerFunc {
	var critical []Probe
	for _, p := range probes {
		if p.Critical {
			critical = append(critical, p)
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_, ready := runProbes(r.Context(), critical)
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		writeHealth(w, code, map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC(),
		})
	}
}

func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeHealth(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
