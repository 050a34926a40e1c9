package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	questions      *prometheus.CounterVec
	recordFailures prometheus.Counter
	duration       prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profileqa_questions_total",
			Help: "Questions handled, by outcome (answered, exhausted, error).",
		}, []string{"outcome"}),
		recordFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profileqa_record_failures_total",
			Help: "Question/answer records that could not be persisted.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "profileqa_request_duration_seconds",
			Help:    "Time spent answering a question, fetch included.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
	reg.MustRegister(m.questions, m.recordFailures, m.duration)
	return m
}
