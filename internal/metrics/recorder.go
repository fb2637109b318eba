package metrics

import "time"

// OutcomeLabel enumerates operation outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for the build/deploy/generation
// pipeline. Implementations may forward to Prometheus, OpenTelemetry, etc.
// The NoopRecorder allows optional injection.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome OutcomeLabel)
	AddPagesRendered(n int)
	ObserveDeployDuration(d time.Duration)
	IncDeployOutcome(outcome OutcomeLabel)
	ObserveGenerationDuration(d time.Duration)
	IncGenerationResult(success bool)
	SetGenerationConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)      {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)            {}
func (NoopRecorder) AddPagesRendered(int)                    {}
func (NoopRecorder) ObserveDeployDuration(time.Duration)     {}
func (NoopRecorder) IncDeployOutcome(OutcomeLabel)           {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration) {}
func (NoopRecorder) IncGenerationResult(bool)                {}
func (NoopRecorder) SetGenerationConcurrency(int)            {}
