package metrics

import "time"

// Recorder receives observability hooks from the evaluation loop, the
// actuator and the catalog sync.
type Recorder interface {
	IncEvaluation(tier string)
	IncIntervention(outcome string)
	ObserveInterventionDuration(d time.Duration)
	IncCatalogRefresh(success bool)
	SetSnapshotSize(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncEvaluation(string)                      {}
func (NoopRecorder) IncIntervention(string)                    {}
func (NoopRecorder) ObserveInterventionDuration(time.Duration) {}
func (NoopRecorder) IncCatalogRefresh(bool)                    {}
func (NoopRecorder) SetSnapshotSize(int)                       {}
