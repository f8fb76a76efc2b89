package command

import "encoding/json"

// AnswerStatus classifies an answer. Processing answers are informational and
// may repeat; Error and Ok are terminal.
type AnswerStatus string

const (
	StatusProcessing AnswerStatus = "PROCESSING"
	StatusError      AnswerStatus = "ERROR"
	StatusOk         AnswerStatus = "OK"
)

// Terminal reports whether the status concludes the command.
func (s AnswerStatus) Terminal() bool {
	return s == StatusError || s == StatusOk
}

// RunState is a worker's lifecycle state as reported by the registry.
type RunState string

const (
	RunStateRunning  RunState = "RUNNING"
	RunStateStopping RunState = "STOPPING"
	RunStateStopped  RunState = "STOPPED"
)

// WorkerInfo describes one worker process; owned by the supervisor, read-only
// to clients.
type WorkerInfo struct {
	ID       uint32   `json:"id"`
	PID      int      `json:"pid"`
	RunState RunState `json:"run_state"`
}

// AnswerData is the optional payload of a terminal answer. Exactly one field
// is set, matching the command that was answered.
type AnswerData struct {
	Workers []WorkerInfo             `json:"workers,omitempty"`
	State   json.RawMessage          `json:"state,omitempty"`
	Metrics map[string]WorkerMetrics `json:"metrics,omitempty"`
	Query   json.RawMessage          `json:"query,omitempty"`
}

// Answer is the supervisor's response to a command, correlated by ID.
type Answer struct {
	ID      string       `json:"id"`
	Status  AnswerStatus `json:"status"`
	Message string       `json:"message"`
	Data    *AnswerData  `json:"data,omitempty"`
}

// NewAnswer builds an answer without payload.
func NewAnswer(id string, status AnswerStatus, message string) *Answer {
	return &Answer{ID: id, Status: status, Message: message}
}
