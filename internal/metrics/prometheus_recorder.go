package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	buildDuration  *prom.HistogramVec
	buildOutcome   *prom.CounterVec
	assetTasks     *prom.CounterVec
	watchTriggers  *prom.CounterVec
	liveReloadSent prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bookforge",
			Name:      "build_duration_seconds",
			Help:      "Duration of external conversion runs by format",
			Buckets:   prom.DefBuckets,
		}, []string{"format"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookforge",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by format and final status",
		}, []string{"format", "outcome"})
		pr.assetTasks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookforge",
			Name:      "asset_tasks_total",
			Help:      "Asset task runs by task and result",
		}, []string{"task", "result"})
		pr.watchTriggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookforge",
			Name:      "watch_triggers_total",
			Help:      "Watch-loop task sequence triggers by file group",
		}, []string{"group"})
		pr.liveReloadSent = prom.NewCounter(prom.CounterOpts{
			Namespace: "bookforge",
			Name:      "livereload_broadcasts_total",
			Help:      "Live-reload notifications broadcast to preview clients",
		})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.assetTasks, pr.watchTriggers, pr.liveReloadSent)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(format string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(format string, outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(format, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncAssetTask(task string, success bool) {
	if p == nil || p.assetTasks == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.assetTasks.WithLabelValues(task, res).Inc()
}

func (p *PrometheusRecorder) IncWatchTrigger(group string) {
	if p == nil || p.watchTriggers == nil {
		return
	}
	p.watchTriggers.WithLabelValues(group).Inc()
}

func (p *PrometheusRecorder) IncLiveReloadBroadcast() {
	if p == nil || p.liveReloadSent == nil {
		return
	}
	p.liveReloadSent.Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
