package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MaterialsCreated is a Prometheus counter for tracking the total number of materials listed.
	MaterialsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "materials_created_total",
		Help: "The total number of materials listed",
	})

	// MaterialsReserved is a Prometheus counter for tracking the total number of successful reservations.
	MaterialsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "materials_reserved_total",
		Help: "The total number of materials reserved",
	})

	// MaterialsCollected is a Prometheus counter for tracking the total number of completed collections.
	MaterialsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "materials_collected_total",
		Help: "The total number of materials collected",
	})

	// MaterialsDeleted is a Prometheus counter for tracking the total number of materials removed.
	MaterialsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "materials_deleted_total",
		Help: "The total number of materials deleted",
	})

	// TransitionConflicts is a Prometheus counter for reserve/collect attempts
	// that lost the status race.
	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "material_transition_conflicts_total",
		Help: "The total number of lifecycle transitions rejected by the status guard",
	})
)
