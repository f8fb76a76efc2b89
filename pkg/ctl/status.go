package ctl

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/command"
)

// statusCollector aggregates per-worker status answers. The drain goroutine
// and the timeout-observing foreground both access it through TryLock only:
// a contended read degrades to "no data yet" instead of blocking the report
// past its deadline.
type statusCollector struct {
	mu      sync.Mutex
	results map[string]*workerStatus // keyed by command id
}

type workerStatus struct {
	workerID uint32
	status   command.AnswerStatus
}

// record updates one entry, best effort.
func (sc *statusCollector) record(id string, status command.AnswerStatus) {
	if !sc.mu.TryLock() {
		return
	}
	defer sc.mu.Unlock()
	if entry, ok := sc.results[id]; ok {
		entry.status = status
	}
}

// snapshot returns status words keyed by worker id, best effort: a contended
// lock yields an empty map.
func (sc *statusCollector) snapshot(finished bool) map[uint32]string {
	if !sc.mu.TryLock() {
		return map[uint32]string{}
	}
	defer sc.mu.Unlock()

	out := make(map[uint32]string, len(sc.results))
	for _, entry := range sc.results {
		out[entry.workerID] = statusWord(entry.status, finished)
	}
	return out
}

func statusWord(status command.AnswerStatus, finished bool) string {
	switch status {
	case command.StatusOk:
		return "ok"
	case command.StatusError:
		return "error"
	default:
		if finished {
			return "processing"
		}
		return "timeout"
	}
}

// Status polls every Running worker with a per-worker Status order and
// reports a table joining the full worker list against collected answers.
// The wait is bounded by the status timeout; workers that have not answered
// by then show "timeout". The operation returns within the timeout bound
// regardless of lock contention.
func (c *Client) Status() (*cli.Table, error) {
	workers, err := c.listWorkers("STATUS")
	if err != nil {
		return nil, err
	}

	expecting := make(map[string]bool)
	collector := &statusCollector{results: make(map[string]*workerStatus)}
	for _, w := range workers {
		if w.RunState != command.RunStateRunning {
			continue
		}
		id := command.GenerateID()
		workerID := w.ID
		if err := c.ch.WriteMessage(command.ProxyConfiguration(id, command.Status(), &workerID)); err != nil {
			return nil, err
		}
		expecting[id] = true
		collector.results[id] = &workerStatus{workerID: workerID, status: command.StatusProcessing}
	}

	finished := true
	if len(expecting) > 0 {
		done := make(chan struct{}, 1)
		go c.drainStatus(expecting, collector, done)

		select {
		case <-done:
		case <-time.After(c.statusTimeout):
			finished = false
		}
	}

	placeholder := ""
	if !finished {
		placeholder = "timeout"
	}

	byWorker := collector.snapshot(finished)
	table := cli.NewTable("Worker", "pid", "run state", "answer")
	for _, w := range workers {
		answer, ok := byWorker[w.ID]
		if !ok {
			answer = placeholder
		}
		table.AddRow(
			strconv.FormatUint(uint64(w.ID), 10),
			strconv.Itoa(w.PID),
			string(w.RunState),
			answer,
		)
	}
	return table, nil
}

// drainStatus reads answers until every expected id has concluded, then
// signals done. Only the drain goroutine touches expecting after launch.
func (c *Client) drainStatus(expecting map[string]bool, collector *statusCollector, done chan<- struct{}) {
	for len(expecting) > 0 {
		ans, err := c.ch.ReadMessage()
		if err != nil {
			c.logger.Warn("status drain stopped", "error", err)
			return
		}
		if ans.Status == command.StatusProcessing {
			continue
		}
		if !expecting[ans.ID] {
			c.logger.Warn("discarding answer for unexpected id", "id", ans.ID)
			continue
		}
		delete(expecting, ans.ID)
		if ans.Status == command.StatusError {
			c.logger.Warn("status error from worker", "id", ans.ID, "message", ans.Message)
		}
		collector.record(ans.ID, ans.Status)
	}
	done <- struct{}{}
}
