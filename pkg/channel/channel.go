// Package channel implements the persistent duplex message channel between
// the administrative client and the supervising process.
//
// A channel is typed on what it sends (Tx) and what it receives (Rx): the
// client side is a Channel[command.Command, command.Answer], the supervisor
// side the mirror image. Messages are newline-delimited JSON frames over an
// ordered byte stream, usually a unix socket.
//
// Absence of a message is not a failure: ReadMessageTimeout returns
// ErrNoMessage when the peer did not respond within the deadline, which
// callers must treat as "no answer at this opportunity" rather than as an
// error answer.
package channel

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// ErrNoMessage reports that no message was available before the read
// deadline. It is a distinct condition from a peer-reported error.
var ErrNoMessage = errors.New("no message available")

// ErrClosed reports that the channel's underlying stream is closed.
var ErrClosed = errors.New("channel closed")

// Channel is a duplex message stream sending Tx values and receiving Rx
// values. Writes and reads are independently safe for one concurrent writer
// and one concurrent reader; neither side may be shared without external
// coordination.
type Channel[Tx, Rx any] struct {
	conn io.ReadWriteCloser

	writeMu sync.Mutex
	enc     *json.Encoder

	readMu sync.Mutex
	buf    *bufio.Reader
	// partial holds the bytes of an incomplete frame interrupted by a read
	// deadline; the next read resumes from here.
	partial []byte
}

// New wraps conn in a typed channel. The caller retains responsibility for
// closing the channel.
func New[Tx, Rx any](conn io.ReadWriteCloser) *Channel[Tx, Rx] {
	return &Channel[Tx, Rx]{
		conn: conn,
		enc:  json.NewEncoder(conn),
		buf:  bufio.NewReader(conn),
	}
}

// Dial connects to the supervisor's control socket at path.
func Dial[Tx, Rx any](path string) (*Channel[Tx, Rx], error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("could not connect to control socket %q: %w", path, err)
	}
	return New[Tx, Rx](conn), nil
}

// WriteMessage sends one message, blocking until the frame is handed to the
// stream.
func (c *Channel[Tx, Rx]) WriteMessage(msg *Tx) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.enc.Encode(msg); err != nil {
		if closedErr(err) {
			return ErrClosed
		}
		return fmt.Errorf("could not write message: %w", err)
	}
	return nil
}

// ReadMessage blocks until a message arrives or the stream closes. A closed
// stream yields ErrClosed.
func (c *Channel[Tx, Rx]) ReadMessage() (*Rx, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	return c.readFrame()
}

// ReadMessageTimeout waits up to d for a message. When the deadline passes
// without a complete frame it returns ErrNoMessage; bytes already received
// are retained and the frame is yielded whole by a subsequent read.
//
// Deadline support requires the underlying stream to implement read
// deadlines (net.Conn does); otherwise the read blocks as ReadMessage does.
func (c *Channel[Tx, Rx]) ReadMessageTimeout(d time.Duration) (*Rx, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	type deadliner interface {
		SetReadDeadline(time.Time) error
	}
	if dc, ok := c.conn.(deadliner); ok {
		dc.SetReadDeadline(time.Now().Add(d))
		defer dc.SetReadDeadline(time.Time{})
	}
	return c.readFrame()
}

// readFrame reads up to the next newline and decodes the frame. The caller
// holds readMu.
func (c *Channel[Tx, Rx]) readFrame() (*Rx, error) {
	line, err := c.buf.ReadBytes('\n')
	if len(line) > 0 {
		c.partial = append(c.partial, line...)
	}
	if err != nil {
		switch {
		case timeoutErr(err):
			return nil, ErrNoMessage
		case closedErr(err):
			return nil, ErrClosed
		default:
			return nil, fmt.Errorf("could not read message: %w", err)
		}
	}

	frame := c.partial
	c.partial = nil

	var msg Rx
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("could not decode message: %w", err)
	}
	return &msg, nil
}

// Close closes the underlying stream. Pending reads fail with ErrClosed.
func (c *Channel[Tx, Rx]) Close() error {
	return c.conn.Close()
}

func closedErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

func timeoutErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
