package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	EvaluationsTotal *prometheus.CounterVec // labels: outcome=call|put|no_action|failed
	PipelineDur      prometheus.Histogram
	RankPassesTotal  prometheus.Counter
	RankPassDur      prometheus.Histogram
	BestConfidence   prometheus.Gauge
	RefreshAssets    *prometheus.CounterVec // labels: result=available|failed
	RefreshDur       prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_evaluations_total",
			Help: "Per-asset pipeline evaluations by outcome",
		}, []string{"outcome"}),
		PipelineDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_pipeline_duration_seconds",
			Help:    "Fetch + indicators + decision latency per asset",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RankPassesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_rank_passes_total",
			Help: "Completed ranking passes",
		}),
		RankPassDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_rank_pass_duration_seconds",
			Help:    "Wall time of a ranking pass",
			Buckets: prometheus.DefBuckets,
		}),
		BestConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_best_confidence",
			Help: "Confidence of the best asset in the latest ranking pass",
		}),
		RefreshAssets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_refresh_assets_total",
			Help: "Assets processed by the bar refresher by result",
		}, []string{"result"}),
		RefreshDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_refresh_duration_seconds",
			Help:    "Wall time of a bar refresh run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.PipelineDur,
		m.RankPassesTotal,
		m.RankPassDur,
		m.BestConfidence,
		m.RefreshAssets,
		m.RefreshDur,
	)
	return m
}

// ObserveEvaluation records one asset evaluation. outcome is the lower-case
// action or "failed".
func (m *Metrics) ObserveEvaluation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
	m.PipelineDur.Observe(d.Seconds())
}

// ObserveRankPass records a finished ranking pass. hasBest is false when no
// asset produced a decision.
func (m *Metrics) ObserveRankPass(d time.Duration, best int, hasBest bool) {
	if m == nil {
		return
	}
	m.RankPassesTotal.Inc()
	m.RankPassDur.Observe(d.Seconds())
	if hasBest {
		m.BestConfidence.Set(float64(best))
	}
}

// ObserveRefresh records a finished refresh run.
func (m *Metrics) ObserveRefresh(d time.Duration, available, failed int) {
	if m == nil {
		return
	}
	m.RefreshAssets.WithLabelValues("available").Add(float64(available))
	m.RefreshAssets.WithLabelValues("failed").Add(float64(failed))
	m.RefreshDur.Observe(d.Seconds())
}

// HealthStatus tracks when the scheduled jobs last completed.
type HealthStatus struct {
	mu          sync.RWMutex
	StartedAt   time.Time
	LastRank    time.Time
	LastRefresh time.Time
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetLastRank(t time.Time) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.LastRank = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastRefresh(t time.Time) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.LastRefresh = t
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	format := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	status := struct {
		Status      string `json:"status"`
		Uptime      string `json:"uptime"`
		LastRank    string `json:"last_rank"`
		LastRefresh string `json:"last_refresh"`
	}{
		Status:      "healthy",
		Uptime:      time.Since(h.StartedAt).Round(time.Second).String(),
		LastRank:    format(h.LastRank),
		LastRefresh: format(h.LastRefresh),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer serves metrics from gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
}
