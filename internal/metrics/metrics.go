// Package metrics exposes certificate check results as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

const namespace = "certcheck"

// Metrics holds the collectors of one agent on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Certificate metrics
	DaysUntilExpiry *prometheus.GaugeVec
	ExpirySeconds   *prometheus.GaugeVec
	CheckResult     *prometheus.GaugeVec
	CheckAttempts   *prometheus.GaugeVec

	// Scan metrics
	ChecksTotal       *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	LastScanTimestamp prometheus.Gauge
	TargetsWatched    prometheus.Gauge

	// Publish metrics
	PublishTotal    *prometheus.CounterVec
	PublishDuration prometheus.Histogram

	AgentInfo *prometheus.GaugeVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		DaysUntilExpiry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "certificate_days_until_expiry",
			Help:      "Whole days until the certificate expires, negative once expired",
		}, []string{"hostname", "port"}),

		ExpirySeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "certificate_expiry_seconds",
			Help:      "Unix timestamp of certificate expiry",
		}, []string{"hostname", "port"}),

		CheckResult: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_result",
			Help:      "Outcome of the last check of a target (always 1, see labels)",
		}, []string{"hostname", "port", "category", "status"}),

		CheckAttempts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_attempts",
			Help:      "Connection attempts made by the last check of a target",
		}, []string{"hostname", "port"}),

		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of completed checks by issue category",
		}, []string{"category"}),

		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of a full scan in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		LastScanTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_timestamp_seconds",
			Help:      "Unix timestamp of the last completed scan",
		}),

		TargetsWatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets_watched",
			Help:      "Number of configured targets",
		}),

		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of publish operations",
		}, []string{"status"}),

		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of publish operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		AgentInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_info",
			Help:      "Agent information",
		}, []string{"version", "agent_name"}),
	}

	m.registry.MustRegister(
		m.DaysUntilExpiry,
		m.ExpirySeconds,
		m.CheckResult,
		m.CheckAttempts,
		m.ChecksTotal,
		m.ScanDuration,
		m.LastScanTimestamp,
		m.TargetsWatched,
		m.PublishTotal,
		m.PublishDuration,
		m.AgentInfo,
	)

	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SetAgentInfo publishes the static agent labels.
func (m *Metrics) SetAgentInfo(version, agentName string) {
	m.AgentInfo.Reset()
	m.AgentInfo.WithLabelValues(version, agentName).Set(1)
}

// ObserveScan replaces the per-target series with the given results.
// Targets that dropped out of the batch disappear from the output.
func (m *Metrics) ObserveScan(results []scanner.Result, duration time.Duration, finishedAt time.Time) {
	m.DaysUntilExpiry.Reset()
	m.ExpirySeconds.Reset()
	m.CheckResult.Reset()
	m.CheckAttempts.Reset()

	for _, r := range results {
		host := r.Target.Hostname
		port := strconv.Itoa(r.Target.Port)
		category := string(r.Category())

		m.CheckResult.WithLabelValues(host, port, category, r.Status()).Set(1)
		m.CheckAttempts.WithLabelValues(host, port).Set(float64(r.Attempts))
		m.ChecksTotal.WithLabelValues(category).Inc()

		if c, ok := r.Certificate(); ok {
			m.DaysUntilExpiry.WithLabelValues(host, port).Set(float64(c.DaysToExpiry))
			m.ExpirySeconds.WithLabelValues(host, port).Set(float64(c.NotAfter.Unix()))
		}
	}

	m.ScanDuration.Observe(duration.Seconds())
	m.LastScanTimestamp.Set(float64(finishedAt.Unix()))
}

// ObservePublish records the outcome of a publish.
func (m *Metrics) ObservePublish(err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.PublishTotal.WithLabelValues(status).Inc()
	m.PublishDuration.Observe(duration.Seconds())
}
