// Package metrics carries the supervisor's prometheus instrumentation and
// its exposition endpoint.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts control-channel commands by kind and terminal
	// answer status.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ganymede",
			Subsystem: "supervisor",
			Name:      "commands_total",
			Help:      "Control commands handled, by kind and terminal status.",
		},
		[]string{"kind", "status"},
	)

	// OrdersApplied counts configuration orders applied to the routing tables.
	OrdersApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ganymede",
			Subsystem: "supervisor",
			Name:      "orders_applied_total",
			Help:      "Configuration orders applied, by order kind.",
		},
		[]string{"kind"},
	)

	// ConnectedClients tracks open admin control-channel connections.
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ganymede",
			Subsystem: "supervisor",
			Name:      "connected_clients",
			Help:      "Currently connected administrative clients.",
		},
	)
)

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
