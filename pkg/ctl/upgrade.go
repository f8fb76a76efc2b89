package ctl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/channel"
	"mercator-hq/ganymede/pkg/command"
)

// DrainTimeoutError reports that the upgrade's drain phase expired with
// launch or stop operations still unconcluded. The upgrade aborts; the
// master is never promoted over outstanding workers.
type DrainTimeoutError struct {
	Launching []string
	Stopping  []string
}

func (e *DrainTimeoutError) Error() string {
	return fmt.Sprintf("upgrade drain timed out: launching [%s] stopping [%s] never concluded",
		strings.Join(e.Launching, ", "), strings.Join(e.Stopping, ", "))
}

// Upgrade performs the zero-downtime restart:
//
//  1. Discover: list workers, select the Running ones.
//  2. Replace: one LaunchWorker plus one targeted SoftStop per selected
//     worker, in-flight ids tracked separately.
//  3. Drain: read answers until both tracking sets are empty. A terminal
//     Error concludes its entry without aborting; the wait is bounded and
//     expiry reports the outstanding ids.
//  4. Promote: send UpgradeMaster and wait for its terminal answer. A
//     mismatched id here aborts the whole upgrade: the correlation contract
//     is strict during promotion.
func (c *Client) Upgrade() error {
	workers, err := c.listWorkers("LIST-WORKERS")
	if err != nil {
		return fmt.Errorf("could not get the worker list: %w", err)
	}

	var running []command.WorkerInfo
	for _, w := range workers {
		if w.RunState == command.RunStateRunning {
			running = append(running, w)
		}
	}
	c.logger.Info("starting upgrade", "workers", len(workers), "running", len(running))

	launching := make(map[string]bool)
	stopping := make(map[string]bool)

	for _, w := range running {
		id := command.GenerateTaggedID("LAUNCH-WORKER")
		tag := fmt.Sprintf("upgrade-%d", w.ID)
		if err := c.ch.WriteMessage(command.LaunchWorker(id, tag)); err != nil {
			return err
		}
		launching[id] = true
		c.logger.Info("replacement worker requested", "id", id, "replacing", w.ID)
	}

	for _, w := range running {
		id := command.GenerateTaggedID("SOFT-STOP-WORKER")
		workerID := w.ID
		if err := c.ch.WriteMessage(command.ProxyConfiguration(id, command.SoftStop(), &workerID)); err != nil {
			return err
		}
		stopping[id] = true
		c.logger.Info("soft stop requested", "id", id, "worker", w.ID)
	}

	if err := c.drainUpgrade(launching, stopping); err != nil {
		return err
	}
	c.logger.Info("worker upgrade done")

	return c.promoteMaster()
}

// drainUpgrade waits for every launch and stop operation to conclude, within
// the drain timeout.
func (c *Client) drainUpgrade(launching, stopping map[string]bool) error {
	deadline := time.Now().Add(c.drainTimeout)

	for len(launching) > 0 || len(stopping) > 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return drainTimeout(launching, stopping)
		}

		ans, err := c.ch.ReadMessageTimeout(remaining)
		if err != nil {
			if errors.Is(err, channel.ErrNoMessage) {
				return drainTimeout(launching, stopping)
			}
			if errors.Is(err, channel.ErrClosed) {
				return ErrNoAnswer
			}
			return err
		}
		if ans.Status == command.StatusProcessing {
			c.logger.Debug("proxy is processing", "id", ans.ID, "message", ans.Message)
			continue
		}
		if ans.Status == command.StatusError {
			// The sub-operation concluded, unsuccessfully; the upgrade
			// continues with the rest.
			c.logger.Warn("upgrade sub-operation failed", "id", ans.ID, "message", ans.Message)
		}

		switch {
		case launching[ans.ID]:
			delete(launching, ans.ID)
			c.logger.Info("launch concluded", "id", ans.ID, "status", ans.Status)
		case stopping[ans.ID]:
			delete(stopping, ans.ID)
			c.logger.Info("stop concluded", "id", ans.ID, "status", ans.Status)
		default:
			c.logger.Warn("discarding answer for unexpected id", "id", ans.ID)
		}
	}
	return nil
}

// promoteMaster sends UpgradeMaster and waits for its terminal answer.
func (c *Client) promoteMaster() error {
	id := command.GenerateTaggedID("UPGRADE-MASTER")
	if err := c.ch.WriteMessage(command.UpgradeMaster(id)); err != nil {
		return err
	}
	c.logger.Info("master upgrade requested", "id", id)

	for {
		ans, err := c.ch.ReadMessage()
		if err != nil {
			if errors.Is(err, channel.ErrClosed) || errors.Is(err, channel.ErrNoMessage) {
				return ErrNoAnswer
			}
			return err
		}
		if ans.ID != id {
			return &MismatchedIDError{Expected: id, Answer: ans}
		}
		switch ans.Status {
		case command.StatusProcessing:
			c.logger.Info("master is processing", "message", ans.Message)
		case command.StatusError:
			return &AnswerError{ID: id, Message: ans.Message}
		case command.StatusOk:
			c.logger.Info("master upgraded", "message", ans.Message)
			return nil
		}
	}
}

func drainTimeout(launching, stopping map[string]bool) *DrainTimeoutError {
	return &DrainTimeoutError{Launching: sortedKeys(launching), Stopping: sortedKeys(stopping)}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
