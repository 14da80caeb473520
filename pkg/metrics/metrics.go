package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hardware_requests"

// Результаты перехода для метки result.
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

type Metrics struct {
	Transitions  *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Количество попыток перехода заявки по событию и результату.",
		}, []string{"transition", "result"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_duration_seconds",
			Help:      "Длительность обработки HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.HTTPDuration)
	}
	return m
}

func (m *Metrics) ObserveTransition(transition, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transition, result).Inc()
}
