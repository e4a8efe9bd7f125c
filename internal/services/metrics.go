package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "publisher",
			Name:      "published_total",
			Help:      "Scheduled events marked as published.",
		},
		[]string{"platform"},
	)

	publishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "publisher",
			Name:      "failures_total",
			Help:      "Publisher runs that could not update an event.",
		},
	)

	bulkAssignmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "bulk",
			Name:      "assignments_total",
			Help:      "Queue items placed by the bulk scheduler.",
		},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "source",
			Name:      "fallbacks_total",
			Help:      "Reads served from demo data after a backend failure.",
		},
		[]string{"op"},
	)
)
