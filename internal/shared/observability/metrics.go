package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cjsflat_parsing_seconds",
		Help:    "Time spent parsing and scanning the inputs of one build.",
		Buckets: prometheus.DefBuckets,
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cjsflat_phase_seconds",
		Help:    "Time spent in each build phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	ModulesRewritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cjsflat_modules_rewritten_total",
		Help: "Total number of modules emitted into a flattened program.",
	})

	GraphModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cjsflat_graph_modules",
		Help: "Number of modules in the last build's require graph.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cjsflat_diagnostics_total",
		Help: "Total number of diagnostics reported, by kind and severity.",
	}, []string{"kind", "severity"})

	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cjsflat_builds_total",
		Help: "Total number of builds, by result.",
	}, []string{"result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cjsflat_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cjsflat_rebuilds_throttled_total",
		Help: "Total number of rebuilds delayed by the rebuild rate limit.",
	})
)
