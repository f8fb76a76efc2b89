package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ganymede",
			Subsystem: "backend",
			Name:      "active_connections",
			Help:      "Connections currently open to each backend instance.",
		},
		[]string{"instance_id"},
	)

	connectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ganymede",
			Subsystem: "backend",
			Name:      "connection_failures_total",
			Help:      "Failed connection attempts per backend instance.",
		},
		[]string{"instance_id"},
	)
)
