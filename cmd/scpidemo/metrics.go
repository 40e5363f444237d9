package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dshills/scpi"
)

var (
	dispatchesDesc = prometheus.NewDesc(
		"scpidemo_dispatches_total",
		"Total handler invocations.",
		nil, nil,
	)
	suspendedDesc = prometheus.NewDesc(
		"scpidemo_suspended_total",
		"Dispatches that suspended awaiting an asynchronous outcome.",
		nil, nil,
	)
	errorsDesc = prometheus.NewDesc(
		"scpidemo_errors_total",
		"Failures by taxonomy code.",
		[]string{"code"}, nil,
	)
	handlerTimeDesc = prometheus.NewDesc(
		"scpidemo_handler_seconds_total",
		"Cumulative handler execution time.",
		nil, nil,
	)
	handlerMaxDesc = prometheus.NewDesc(
		"scpidemo_handler_max_seconds",
		"Longest single dispatch.",
		nil, nil,
	)
)

// metricsCollector exposes an interpreter's counters to Prometheus by
// snapshotting on every scrape.
type metricsCollector struct {
	m *scpi.Metrics
}

func (c metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dispatchesDesc
	ch <- suspendedDesc
	ch <- errorsDesc
	ch <- handlerTimeDesc
	ch <- handlerMaxDesc
}

func (c metricsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.m.Snapshot()
	ch <- prometheus.MustNewConstMetric(dispatchesDesc, prometheus.CounterValue, float64(snap.Dispatches))
	ch <- prometheus.MustNewConstMetric(suspendedDesc, prometheus.CounterValue, float64(snap.Suspended))
	for code, n := range snap.Errors {
		ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(n), code.String())
	}
	ch <- prometheus.MustNewConstMetric(handlerTimeDesc, prometheus.CounterValue, snap.TotalTime.Seconds())
	ch <- prometheus.MustNewConstMetric(handlerMaxDesc, prometheus.GaugeValue, snap.MaxTime.Seconds())
}

// serveMetrics registers the collector and starts the scrape endpoint in
// the background.
func serveMetrics(addr string, m *scpi.Metrics, logger zerolog.Logger) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metricsCollector{m: m})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics endpoint failed")
		}
	}()
}
