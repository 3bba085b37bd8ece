package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ward"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry             *prom.Registry
	evaluations          *prom.CounterVec
	interventions        *prom.CounterVec
	interventionDuration prom.Histogram
	catalogRefreshes     *prom.CounterVec
	snapshotSize         prom.Gauge
}

// NewPrometheusRecorder builds and registers the daemon metrics on reg. A nil
// reg gets a fresh registry with Go and process collectors.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}
	pr := &PrometheusRecorder{
		registry: reg,
		evaluations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Now-playing evaluations by matching tier",
		}, []string{"tier"}),
		interventions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "interventions_total",
			Help:      "Completed interventions by outcome",
		}, []string{"outcome"}),
		interventionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "intervention_duration_seconds",
			Help:      "Wall time of one intervention including settle and advance",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}),
		catalogRefreshes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Remote catalog refresh attempts by result",
		}, []string{"result"}),
		snapshotSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entries",
			Help:      "Entries in the active matching snapshot",
		}),
	}
	reg.MustRegister(pr.evaluations, pr.interventions, pr.interventionDuration, pr.catalogRefreshes, pr.snapshotSize)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) IncEvaluation(tier string) {
	if p == nil {
		return
	}
	p.evaluations.WithLabelValues(tier).Inc()
}

func (p *PrometheusRecorder) IncIntervention(outcome string) {
	if p == nil {
		return
	}
	p.interventions.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveInterventionDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.interventionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCatalogRefresh(success bool) {
	if p == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	p.catalogRefreshes.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) SetSnapshotSize(n int) {
	if p == nil {
		return
	}
	p.snapshotSize.Set(float64(n))
}
