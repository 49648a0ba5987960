// Package metrics expose les compteurs Prometheus du formulaire et du tableau de bord.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics regroupe les métriques applicatives. Un *Metrics nil est accepté et ignore tout.
type Metrics struct {
	registry *prometheus.Registry

	predictionsTotal      *prometheus.CounterVec
	predictionErrorsTotal *prometheus.CounterVec

	dashboardSessionsTotal   prometheus.Counter
	dashboardLoadErrorsTotal prometheus.Counter
	dashboardRenders         *prometheus.CounterVec
	datasetRows              prometheus.Gauge
}

// New crée et enregistre les métriques sur le registre fourni.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}

	m.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "return_predictions_total",
			Help: "Total number of return predictions served",
		},
		[]string{"verdict"}, // verdict: returned, kept
	)
	m.predictionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "return_prediction_errors_total",
			Help: "Total number of prediction requests that failed",
		},
		[]string{"kind"}, // kind: encoding, range, schema, model
	)
	m.dashboardSessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_sessions_total",
		Help: "Total number of dashboard sessions started",
	})
	m.dashboardLoadErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_load_errors_total",
		Help: "Total number of dashboard sessions halted by a dataset load failure",
	})
	m.dashboardRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_renders_total",
			Help: "Total number of dashboard renders",
		},
		[]string{"state"}, // state: data, empty
	)
	m.datasetRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_dataset_rows",
		Help: "Number of rows in the most recently loaded sales dataset",
	})

	collectors := []prometheus.Collector{
		m.predictionsTotal,
		m.predictionErrorsTotal,
		m.dashboardSessionsTotal,
		m.dashboardLoadErrorsTotal,
		m.dashboardRenders,
		m.datasetRows,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry retourne le registre utilisé pour l'endpoint /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordPrediction(verdict string) {
	if m == nil {
		return
	}
	m.predictionsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) RecordPredictionError(kind string) {
	if m == nil {
		return
	}
	m.predictionErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSessionStart(rows int) {
	if m == nil {
		return
	}
	m.dashboardSessionsTotal.Inc()
	m.datasetRows.Set(float64(rows))
}

func (m *Metrics) RecordLoadError() {
	if m == nil {
		return
	}
	m.dashboardLoadErrorsTotal.Inc()
}

func (m *Metrics) RecordRender(empty bool) {
	if m == nil {
		return
	}
	state := "data"
	if empty {
		state = "empty"
	}
	m.dashboardRenders.WithLabelValues(state).Inc()
}
