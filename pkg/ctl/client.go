package ctl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"mercator-hq/ganymede/pkg/channel"
	"mercator-hq/ganymede/pkg/command"
)

// ErrNoAnswer reports transport silence: the proxy did not answer when an
// answer was expected. Distinct from an Error answer, which is the peer
// reporting a failure.
var ErrNoAnswer = errors.New("the proxy did not answer")

// MismatchedIDError reports a protocol anomaly: an answer whose id does not
// match the in-flight command. The enclosing operation aborts without
// applying anything associated with the original id.
type MismatchedIDError struct {
	Expected string
	Answer   *command.Answer
}

func (e *MismatchedIDError) Error() string {
	return fmt.Sprintf("received answer with mismatched id %q (expected %q): %s",
		e.Answer.ID, e.Expected, e.Answer.Message)
}

// AnswerError is a terminal Error answer: the peer processed the command and
// reports failure with a human-readable message.
type AnswerError struct {
	ID      string
	Message string
}

func (e *AnswerError) Error() string {
	return e.Message
}

// Channel is the duplex control-channel capability the client needs. A
// *channel.Channel[command.Command, command.Answer] satisfies it.
type Channel interface {
	WriteMessage(*command.Command) error
	ReadMessage() (*command.Answer, error)
	ReadMessageTimeout(time.Duration) (*command.Answer, error)
}

const (
	defaultStatusTimeout = 1000 * time.Millisecond
	defaultDrainTimeout  = 60 * time.Second
)

// Client drives administrative operations over one control channel. It is
// not safe for concurrent use: one command sequence owns the channel at a
// time.
type Client struct {
	ch     Channel
	out    io.Writer
	logger *slog.Logger

	statusTimeout time.Duration
	drainTimeout  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithOutput redirects human-readable command results (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(c *Client) { c.out = w }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithStatusTimeout bounds the status fan-out wait (default 1s).
func WithStatusTimeout(d time.Duration) Option {
	return func(c *Client) { c.statusTimeout = d }
}

// WithDrainTimeout bounds the upgrade drain phase (default 60s).
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Client) { c.drainTimeout = d }
}

// New creates a client over ch.
func New(ch Channel, opts ...Option) *Client {
	c := &Client{
		ch:            ch,
		out:           os.Stdout,
		logger:        slog.Default().With("component", "ctl"),
		statusTimeout: defaultStatusTimeout,
		drainTimeout:  defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// readTerminal blocks until the terminal answer for id arrives, skipping any
// number of Processing answers. Transport silence maps to ErrNoAnswer, a
// mismatched id aborts, an Error answer becomes an AnswerError.
func (c *Client) readTerminal(id string) (*command.Answer, error) {
	for {
		ans, err := c.ch.ReadMessage()
		if err != nil {
			if errors.Is(err, channel.ErrClosed) || errors.Is(err, channel.ErrNoMessage) {
				return nil, ErrNoAnswer
			}
			return nil, err
		}
		if ans.ID != id {
			return nil, &MismatchedIDError{Expected: id, Answer: ans}
		}
		switch ans.Status {
		case command.StatusProcessing:
			c.logger.Debug("proxy is processing", "id", id, "message", ans.Message)
		case command.StatusError:
			return nil, &AnswerError{ID: id, Message: ans.Message}
		case command.StatusOk:
			return ans, nil
		default:
			return nil, fmt.Errorf("unknown answer status %q for id %q", ans.Status, id)
		}
	}
}

// send writes cmd and waits for its terminal answer.
func (c *Client) send(cmd *command.Command) (*command.Answer, error) {
	if err := c.ch.WriteMessage(cmd); err != nil {
		return nil, err
	}
	return c.readTerminal(cmd.ID)
}

// listWorkers requests the worker registry with a tag-prefixed id. The
// registry answer must be immediate: a Processing answer here is itself a
// protocol violation.
func (c *Client) listWorkers(tag string) ([]command.WorkerInfo, error) {
	id := command.GenerateTaggedID(tag)
	if err := c.ch.WriteMessage(command.ListWorkers(id)); err != nil {
		return nil, err
	}

	ans, err := c.ch.ReadMessage()
	if err != nil {
		if errors.Is(err, channel.ErrClosed) || errors.Is(err, channel.ErrNoMessage) {
			return nil, ErrNoAnswer
		}
		return nil, err
	}
	if ans.ID != id {
		return nil, &MismatchedIDError{Expected: id, Answer: ans}
	}
	switch ans.Status {
	case command.StatusProcessing:
		return nil, fmt.Errorf("worker list should have been answered immediately")
	case command.StatusError:
		return nil, &AnswerError{ID: id, Message: ans.Message}
	}
	if ans.Data == nil || ans.Data.Workers == nil {
		return nil, fmt.Errorf("worker list answer carried no workers")
	}
	return ans.Data.Workers, nil
}

// ListWorkers returns the worker registry snapshot.
func (c *Client) ListWorkers() ([]command.WorkerInfo, error) {
	return c.listWorkers("LIST-WORKERS")
}
