package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tictactoe"

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Metrics holds the Prometheus collectors of the AI player.
type Metrics struct {
	registry *prometheus.Registry

	MoveRequests    *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	ProviderRetries *prometheus.CounterVec
	ConfigLoads     *prometheus.CounterVec
}

// New registers all collectors on registry. Tests pass a fresh registry.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		MoveRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_moves_total",
			Help:      "Moves produced by the AI player by provider and source",
		}, []string{"provider", "source"}),

		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_fallbacks_total",
			Help:      "Fallback moves by reason",
		}, []string{"reason"}),

		// up to a minute for slow completions
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_provider_request_duration_seconds",
			Help:      "Provider call latency in seconds, retries included",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),

		ProviderRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_provider_retries_total",
			Help:      "Retried provider calls",
		}, []string{"provider"}),

		ConfigLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_config_loads_total",
			Help:      "AI config load attempts by result",
		}, []string{"result"}),
	}
}

// NewDefault returns metrics on a new registry that also exports the Go and
// process collectors.
func NewDefault() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return New(registry)
}

func (that *Metrics) ObserveMove(provider, source string) {
	that.MoveRequests.WithLabelValues(provider, source).Inc()
}

func (that *Metrics) ObserveFallback(reason string) {
	that.Fallbacks.WithLabelValues(reason).Inc()
}

func (that *Metrics) ObserveProviderCall(provider string, elapsed time.Duration) {
	that.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (that *Metrics) ObserveRetry(provider string) {
	that.ProviderRetries.WithLabelValues(provider).Inc()
}

func (that *Metrics) ObserveConfigLoad(result string) {
	that.ConfigLoads.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (that *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(that.registry, promhttp.HandlerOpts{Registry: that.registry})
}
