// Package metrics provides Prometheus instrumentation for the VCT service.
//
// A Registry bundles the service collectors so tests and embedded servers
// can use isolated registries instead of the process-global default.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// latencyBuckets matches the command-latency histogram layout used by the
// service dashboards.
var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// Registry holds the VCT metric collectors.
type Registry struct {
	reg *prometheus.Registry

	apiRequests    *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	commands       *prometheus.CounterVec
	rewards        *prometheus.CounterVec
}

// NewRegistry creates a Registry with all VCT collectors registered,
// alongside the standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vct_api_requests_total",
			Help: "Total number of HTTP requests handled by the VCT API.",
		}, []string{"endpoint", "method", "status"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vct_command_latency_seconds",
			Help:    "Time spent handling robot commands.",
			Buckets: latencyBuckets,
		}, []string{"endpoint"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vct_commands_total",
			Help: "Commands processed by the brain, labeled by source.",
		}, []string{"source"}),
		rewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vct_rewards_total",
			Help: "Reward actuator outcomes per action.",
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(r.apiRequests, r.commandLatency, r.commands, r.rewards)
	return r
}

// RecordAPIRequest increments the API request counter.
func (r *Registry) RecordAPIRequest(endpoint, method string, status int) {
	r.apiRequests.WithLabelValues(endpoint, strings.ToUpper(method), strconv.Itoa(status)).Inc()
}

// ObserveCommandLatency records how long a command endpoint took.
func (r *Registry) ObserveCommandLatency(endpoint string, d time.Duration) {
	r.commandLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordCommand tracks a processed command by its source ("api", "cli", "sim").
func (r *Registry) RecordCommand(source string) {
	r.commands.WithLabelValues(source).Inc()
}

// RecordReward tracks a reward decision for an action.
func (r *Registry) RecordReward(action string, rewarded bool) {
	outcome := "skipped"
	if rewarded {
		outcome = "rewarded"
	}
	if action == "" {
		action = "UNKNOWN"
	}
	r.rewards.WithLabelValues(action, outcome).Inc()
}

// Handler returns the Prometheus exposition handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gather exposes the underlying gatherer, mainly for tests.
func (r *Registry) Gather() prometheus.Gatherer { return r.reg }
