package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	apiInflight  prometheus.Gauge
	apiReqTotal  prometheus.Counter
	apiReqError  prometheus.Counter
	mutations    *prometheus.CounterVec
	answers      *prometheus.CounterVec
	importedRows prometheus.Counter
}

var (
	metricsOnce sync.Once
	current     *Metrics
)

// Current returns the process metrics, or nil when Init has not run.
func Current() *Metrics {
	return current
}

func Init(log *logger.Logger) *Metrics {
	metricsOnce.Do(func() {
		current = newMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return current
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eigo_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eigo_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eigo_api_inflight_requests",
			Help: "HTTP requests in flight.",
		}),
		apiReqTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eigo_api_requests_all_total",
			Help: "All HTTP requests.",
		}),
		apiReqError: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eigo_api_requests_5xx_total",
			Help: "HTTP requests answered with 5xx.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eigo_hierarchy_mutations_total",
			Help: "Hierarchy creates, updates, deletes, reorders and moves by operation and outcome code.",
		}, []string{"op", "code"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eigo_answers_submitted_total",
			Help: "Learner answers by correctness.",
		}, []string{"correct"}),
		importedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eigo_import_rows_total",
			Help: "Question rows imported.",
		}),
	}
	m.registry.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.mutations, m.answers, m.importedRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the collectors for gathering in tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StartServer serves /metrics on a separate listener until ctx ends.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveMutation counts a hierarchy write; code is "OK" or an error code.
func (m *Metrics) ObserveMutation(op, code string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, code).Inc()
}

// MutationCount reads back one op/code series.
func (m *Metrics) MutationCount(op, code string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.mutations.WithLabelValues(op, code))
}

func (m *Metrics) IncAnswerSubmitted(isCorrect bool) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(strconv.FormatBool(isCorrect)).Inc()
}

func (m *Metrics) AddImportedRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importedRows.Add(float64(n))
}

// RegisterDB exports the connection pool stats of db.
func (m *Metrics) RegisterDB(log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("db collector disabled", "error", err)
		}
		return
	}
	err = m.registry.Register(collectors.NewDBStatsCollector(sqlDB, "eigo"))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) && log != nil {
		log.Warn("db collector disabled", "error", err)
	}
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil || out.Counter == nil {
		return 0
	}
	return out.Counter.GetValue()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}
