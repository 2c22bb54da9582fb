package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runmeter_samples_total",
			Help: "Total number of samples recorded, by resource domain",
		},
		[]string{"domain"},
	)

	sampleErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runmeter_sample_errors_total",
			Help: "Total number of failed sampling attempts, by resource domain",
		},
		[]string{"domain"},
	)

	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runmeter_queries_total",
			Help: "Total number of query interface requests, by endpoint",
		},
		[]string{"endpoint"},
	)

	storedSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "runmeter_stored_samples",
			Help: "Number of samples currently buffered, by resource domain",
		},
		[]string{"domain"},
	)
)
