// Package metrics provides observability hooks for build, asset, and watch
// activity. Components receive a Recorder through dependency injection; the
// default NoopRecorder makes metrics strictly optional.
package metrics

import "time"

// OutcomeLabel enumerates terminal build outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailed  OutcomeLabel = "failed"
)

// Recorder defines observability hooks for build and asset-task metrics.
// Implementations may forward to Prometheus or do nothing.
type Recorder interface {
	ObserveBuildDuration(format string, d time.Duration)
	IncBuildOutcome(format string, outcome OutcomeLabel)
	IncAssetTask(task string, success bool)
	IncWatchTrigger(group string)
	IncLiveReloadBroadcast()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) IncAssetTask(string, bool)                  {}
func (NoopRecorder) IncWatchTrigger(string)                     {}
func (NoopRecorder) IncLiveReloadBroadcast()                    {}
