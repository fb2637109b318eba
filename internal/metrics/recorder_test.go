package metrics

import (
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(OutcomeSuccess)
	r.AddPagesRendered(10)
	r.ObserveDeployDuration(time.Second)
	r.IncDeployOutcome(OutcomeFailed)
	r.ObserveGenerationDuration(time.Second)
	r.IncGenerationResult(true)
	r.SetGenerationConcurrency(5)
}

func TestPrometheusRecorderRegisters(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.ObserveBuildDuration(2 * time.Second)
	r.IncBuildOutcome(OutcomeSuccess)
	r.AddPagesRendered(10)
	r.IncDeployOutcome(OutcomeFailed)
	r.IncGenerationResult(false)
	r.SetGenerationConcurrency(5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{
		"affgen_build_duration_seconds",
		"affgen_build_outcomes_total",
		"affgen_pages_rendered_total",
		"affgen_deploy_outcomes_total",
		"affgen_generation_results_total",
		"affgen_generation_concurrency",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("metric %s not registered (have %s)", want, joined)
		}
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(OutcomeSuccess)
	r.AddPagesRendered(1)
}
