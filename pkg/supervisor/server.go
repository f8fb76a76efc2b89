package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/channel"
	"mercator-hq/ganymede/pkg/command"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Server accepts administrative clients on the control socket and answers
// their commands against the routing state and the worker registry.
//
// Every command receives exactly one terminal answer carrying the command's
// id; long operations may emit Processing answers first.
type Server struct {
	cfg      config.SupervisorConfig
	state    *State
	registry *Registry
	audit    *AuditLog
	logger   *logging.Logger

	startedAt time.Time

	metricsMu     sync.Mutex
	workerMetrics map[string]command.WorkerMetrics
	ordersApplied int64
}

// NewServer wires the dispatcher. audit may be nil to disable order auditing.
func NewServer(cfg config.SupervisorConfig, state *State, registry *Registry, audit *AuditLog, logger *logging.Logger) *Server {
	return &Server{
		cfg:           cfg,
		state:         state,
		registry:      registry,
		audit:         audit,
		logger:        logger,
		startedAt:     time.Now(),
		workerMetrics: make(map[string]command.WorkerMetrics),
	}
}

// Serve listens on the configured unix socket until ctx is cancelled. A stale
// socket file from a previous run is removed first.
func (s *Server) Serve(ctx context.Context) error {
	path := s.cfg.CommandSocket
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("could not create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove stale socket %q: %w", path, err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("could not listen on control socket %q: %w", path, err)
	}
	// Admin socket: owner and group only.
	os.Chmod(path, 0o660)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("control socket listening", "path", path)

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	wg.Wait()
	os.Remove(path)
	return nil
}

// handleConn serves one client connection until it closes.
func (s *Server) handleConn(ctx context.Context, conn io.ReadWriteCloser) {
	metrics.ConnectedClients.Inc()
	defer metrics.ConnectedClients.Dec()

	ch := channel.New[command.Answer, command.Command](conn)
	defer ch.Close()

	for {
		cmd, err := ch.ReadMessage()
		if err != nil {
			if !errors.Is(err, channel.ErrClosed) {
				s.logger.Warn("client read failed", "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.dispatch(ctx, ch, cmd)
	}
}

// answerChannel is the write side handleConn hands the dispatcher; tests
// substitute an in-memory pipe.
type answerChannel interface {
	WriteMessage(*command.Answer) error
}

func (s *Server) dispatch(ctx context.Context, ch answerChannel, cmd *command.Command) {
	answer := s.handle(ctx, ch, cmd)
	metrics.CommandsTotal.WithLabelValues(string(cmd.Kind), string(answer.Status)).Inc()

	if answer.Status == command.StatusError {
		s.logger.Warn("command failed", "id", cmd.ID, "kind", cmd.Kind, "message", answer.Message)
	} else {
		s.logger.Debug("command handled", "id", cmd.ID, "kind", cmd.Kind)
	}

	if err := ch.WriteMessage(answer); err != nil {
		s.logger.Warn("could not answer client", "id", cmd.ID, "error", err)
	}
}

// handle executes one command and returns its terminal answer. Processing
// answers are written directly; the terminal one is returned so dispatch can
// count and log it uniformly.
func (s *Server) handle(ctx context.Context, ch answerChannel, cmd *command.Command) *command.Answer {
	switch cmd.Kind {
	case command.KindProxyConfiguration:
		return s.handleOrder(ctx, ch, cmd)

	case command.KindSaveState:
		ch.WriteMessage(command.NewAnswer(cmd.ID, command.StatusProcessing, "saving state"))
		path := cmd.Path
		if path == "" {
			path = s.cfg.StateFile
		}
		if err := s.state.Save(path); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		return command.NewAnswer(cmd.ID, command.StatusOk, fmt.Sprintf("state saved to %s", path))

	case command.KindLoadState:
		if err := s.state.Load(cmd.Path); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		return command.NewAnswer(cmd.ID, command.StatusOk, fmt.Sprintf("state loaded from %s", cmd.Path))

	case command.KindDumpState:
		state, err := s.state.Dump()
		if err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		a := command.NewAnswer(cmd.ID, command.StatusOk, "")
		a.Data = &command.AnswerData{State: state}
		return a

	case command.KindListWorkers:
		a := command.NewAnswer(cmd.ID, command.StatusOk, "")
		a.Data = &command.AnswerData{Workers: s.registry.List()}
		return a

	case command.KindLaunchWorker:
		info, err := s.registry.Launch(cmd.Tag)
		if err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		return command.NewAnswer(cmd.ID, command.StatusOk,
			fmt.Sprintf("worker %d launched (pid %d)", info.ID, info.PID))

	case command.KindUpgradeMaster:
		ch.WriteMessage(command.NewAnswer(cmd.ID, command.StatusProcessing, "saving state before promotion"))
		if err := s.state.Save(s.cfg.StateFile); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError,
				fmt.Sprintf("refusing promotion, could not save state: %s", err))
		}
		// Re-execution of the master binary is the launcher environment's
		// job; the answer confirms the state handoff is on disk.
		return command.NewAnswer(cmd.ID, command.StatusOk, "master promotion prepared")

	case command.KindQuery:
		if cmd.Query == nil {
			return command.NewAnswer(cmd.ID, command.StatusError, "query command without query")
		}
		result, err := s.state.Query(cmd.Query)
		if err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		a := command.NewAnswer(cmd.ID, command.StatusOk, "")
		a.Data = &command.AnswerData{Query: result}
		return a

	case command.KindMetrics:
		a := command.NewAnswer(cmd.ID, command.StatusOk, "")
		a.Data = &command.AnswerData{Metrics: s.metricsSnapshot()}
		return a

	case command.KindLoggingFilter:
		if err := s.logger.SetFilter(cmd.Filter); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		return command.NewAnswer(cmd.ID, command.StatusOk,
			fmt.Sprintf("logging filter set to %s", cmd.Filter))

	default:
		return command.NewAnswer(cmd.ID, command.StatusError,
			fmt.Sprintf("unknown command kind %q", cmd.Kind))
	}
}

// handleOrder routes a configuration order: stop, status and logging orders
// touch the registry or the logger, everything else mutates the routing
// tables.
func (s *Server) handleOrder(ctx context.Context, ch answerChannel, cmd *command.Command) *command.Answer {
	if cmd.Order == nil {
		return command.NewAnswer(cmd.ID, command.StatusError, "configuration command without order")
	}

	switch cmd.Order.Kind {
	case command.OrderStatus:
		if cmd.WorkerID == nil {
			return command.NewAnswer(cmd.ID, command.StatusError, "status order requires a worker id")
		}
		w, ok := s.registry.Get(*cmd.WorkerID)
		if !ok {
			return command.NewAnswer(cmd.ID, command.StatusError,
				fmt.Sprintf("unknown worker %d", *cmd.WorkerID))
		}
		if w.RunState != command.RunStateRunning {
			return command.NewAnswer(cmd.ID, command.StatusError,
				fmt.Sprintf("worker %d is %s", w.ID, w.RunState))
		}
		return command.NewAnswer(cmd.ID, command.StatusOk, "the worker is answering")

	case command.OrderSoftStop:
		if cmd.WorkerID == nil {
			s.registry.SoftStopAll()
			return command.NewAnswer(cmd.ID, command.StatusOk, "soft stopping all workers")
		}
		ch.WriteMessage(command.NewAnswer(cmd.ID, command.StatusProcessing, "draining worker"))
		if err := s.registry.SoftStop(*cmd.WorkerID); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		// Session draining is the worker's side of the protocol; the
		// registry records the outcome.
		if err := s.registry.MarkStopped(*cmd.WorkerID); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		return command.NewAnswer(cmd.ID, command.StatusOk,
			fmt.Sprintf("worker %d stopped", *cmd.WorkerID))

	case command.OrderHardStop:
		s.registry.HardStopAll()
		return command.NewAnswer(cmd.ID, command.StatusOk, "hard stopping all workers")

	case command.OrderLogging:
		if err := s.logger.SetFilter(cmd.Order.Filter); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		return command.NewAnswer(cmd.ID, command.StatusOk, "logging filter changed")

	default:
		if err := s.state.ApplyOrder(cmd.Order); err != nil {
			return command.NewAnswer(cmd.ID, command.StatusError, err.Error())
		}
		metrics.OrdersApplied.WithLabelValues(string(cmd.Order.Kind)).Inc()
		s.metricsMu.Lock()
		s.ordersApplied++
		s.metricsMu.Unlock()

		if s.audit != nil {
			if err := s.audit.Record(ctx, cmd.ID, cmd.Order); err != nil {
				s.logger.Warn("could not record order in audit log", "id", cmd.ID, "error", err)
			}
		}
		return command.NewAnswer(cmd.ID, command.StatusOk, "")
	}
}

// ReportWorkerMetrics ingests a worker's metrics snapshot under its tag,
// replacing the previous report.
func (s *Server) ReportWorkerMetrics(tag string, m command.WorkerMetrics) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.workerMetrics[tag] = m
}

// metricsSnapshot assembles the master's own counters plus the latest report
// from every worker.
func (s *Server) metricsSnapshot() map[string]command.WorkerMetrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	out := make(map[string]command.WorkerMetrics, len(s.workerMetrics)+1)
	for tag, m := range s.workerMetrics {
		out[tag] = m
	}
	out[command.MasterTag] = command.WorkerMetrics{
		Proxy: map[string]int64{
			"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
			"orders_applied": s.ordersApplied,
			"workers":        int64(len(s.registry.List())),
		},
	}
	return out
}
