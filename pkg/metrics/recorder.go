// Package metrics exposes build observability hooks. The generator talks to the
// Recorder interface only; a Prometheus implementation is used when a metrics
// address is configured and NoopRecorder otherwise.
package metrics

import "time"

// Outcome enumerates final build run results.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder defines observability hooks for build runs and individual documents.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome Outcome)
	ObserveDocumentDuration(variant string, d time.Duration)
	IncDocumentResult(variant, status string)
	AddBrokenLinks(variant string, n int)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncBuildOutcome(Outcome)                       {}
func (NoopRecorder) ObserveDocumentDuration(string, time.Duration) {}
func (NoopRecorder) IncDocumentResult(string, string)              {}
func (NoopRecorder) AddBrokenLinks(string, int)                    {}
func (NoopRecorder) SetWorkers(int)                                {}
