package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	pagesRendered  prom.Counter
	deployDuration prom.Histogram
	deployOutcome  *prom.CounterVec
	genDuration    prom.Histogram
	genResults     *prom.CounterVec
	genConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "affgen",
			Name:      "build_duration_seconds",
			Help:      "Total site render duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "affgen",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesRendered = prom.NewCounter(prom.CounterOpts{
			Namespace: "affgen",
			Name:      "pages_rendered_total",
			Help:      "Pages written across all builds",
		})
		pr.deployDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "affgen",
			Name:      "deploy_duration_seconds",
			Help:      "Total deploy duration",
			Buckets:   prom.DefBuckets,
		})
		pr.deployOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "affgen",
			Name:      "deploy_outcomes_total",
			Help:      "Deploy outcomes by final status",
		}, []string{"outcome"})
		pr.genDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "affgen",
			Name:      "generation_duration_seconds",
			Help:      "Duration of content generation batches",
			Buckets:   prom.DefBuckets,
		})
		pr.genResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "affgen",
			Name:      "generation_results_total",
			Help:      "Per-page generation results by success/failure",
		}, []string{"result"})
		pr.genConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "affgen",
			Name:      "generation_concurrency",
			Help:      "Configured generation worker pool width",
		})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.pagesRendered,
			pr.deployDuration, pr.deployOutcome, pr.genDuration, pr.genResults, pr.genConcurrency)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveDeployDuration(d time.Duration) {
	if p == nil || p.deployDuration == nil {
		return
	}
	p.deployDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDeployOutcome(outcome OutcomeLabel) {
	if p == nil || p.deployOutcome == nil {
		return
	}
	p.deployOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil || p.genDuration == nil {
		return
	}
	p.genDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncGenerationResult(success bool) {
	if p == nil || p.genResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.genResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetGenerationConcurrency(n int) {
	if p == nil || p.genConcurrency == nil {
		return
	}
	p.genConcurrency.Set(float64(n))
}
