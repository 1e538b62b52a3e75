package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_assistant_compensations_total",
			Help: "Provider assistants rolled back after a failed local write, by outcome",
		},
		[]string{"outcome"}, // deleted, queued, orphaned
	)

	reconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_reconciliation_tasks_total",
			Help: "Reconciliation task attempts by outcome",
		},
		[]string{"outcome"}, // resolved, failed
	)
)
