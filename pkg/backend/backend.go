// Package backend holds the per-backend connection lifecycle: the health and
// circuit-breaker state every routing decision consults, connection
// accounting, and the readiness model the proxy event loop arms its poll
// interest from.
package backend

import (
	"crypto/tls"
	"errors"
	"net"
	"time"
)

// ErrNoBackendAvailable reports that the backend cannot accept a new
// connection now. Individual connect failures never surface beyond this
// error; they accumulate in the retry policy, which later CanOpen checks
// consult. That is deliberate backpressure, not exception propagation.
var ErrNoBackendAvailable = errors.New("no backend available")

// Protocol selects the transport used to reach a backend.
type Protocol int

const (
	// TCP dials the backend in the clear.
	TCP Protocol = iota
	// TLS dials the backend with a TLS handshake.
	TLS
)

// Status is a backend record's lifecycle state.
type Status int

const (
	// StatusNormal accepts new connections.
	StatusNormal Status = iota
	// StatusClosing refuses new connections while in-flight ones drain.
	StatusClosing
	// StatusClosed is terminal: no connections, no further increments.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusClosing:
		return "closing"
	default:
		return "closed"
	}
}

const defaultConnectTimeout = 3 * time.Second

// Backend is one upstream instance of an application: its address, lifecycle
// status, connection accounting and retry policy.
//
// Fields are mutated under a single-writer discipline: the owning session or
// event-loop goroutine is the sole mutator per record. Sharing a record
// across goroutines requires external coordination.
type Backend struct {
	ID         uint32
	InstanceID string
	Address    string

	status            Status
	retry             Policy
	activeConnections int
	failures          int

	connectTimeout time.Duration
	tlsConfig      *tls.Config
}

// Option customizes a backend record.
type Option func(*Backend)

// WithRetryPolicy replaces the default exponential-backoff policy.
func WithRetryPolicy(p Policy) Option {
	return func(b *Backend) { b.retry = p }
}

// WithConnectTimeout bounds each dial attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(b *Backend) { b.connectTimeout = d }
}

// WithTLSConfig sets the client TLS configuration used for Protocol TLS,
// including the ServerName the backend's certificate must match.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(b *Backend) { b.tlsConfig = cfg }
}

// New creates a backend record in Normal status with an exponential-backoff
// retry policy allowing ten consecutive failures.
func New(instanceID, address string, id uint32, opts ...Option) *Backend {
	b := &Backend{
		ID:             id,
		InstanceID:     instanceID,
		Address:        address,
		status:         StatusNormal,
		retry:          NewExponentialBackoff(10),
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Status returns the record's lifecycle status.
func (b *Backend) Status() Status { return b.status }

// ActiveConnections returns the live connection count.
func (b *Backend) ActiveConnections() int { return b.activeConnections }

// Failures returns the total connect-failure count over the record's life.
func (b *Backend) Failures() int { return b.failures }

// RetryPolicy exposes the record's policy, e.g. for explicit resets.
func (b *Backend) RetryPolicy() Policy { return b.retry }

// SetClosing marks the record Closing: no new connections, in-flight ones
// drain. The transition to Closed happens when the last connection closes.
func (b *Backend) SetClosing() {
	b.status = StatusClosing
}

// CanOpen reports whether a new connection may be opened now: the record is
// Normal and the retry policy permits an attempt.
func (b *Backend) CanOpen() bool {
	action, ok := b.retry.CanTry()
	return ok && b.status == StatusNormal && action == ActionOK
}

// IncConnections counts a new connection. It refuses unless the record is
// Normal; the returned bool reports whether the count changed.
func (b *Backend) IncConnections() (int, bool) {
	if b.status != StatusNormal {
		return 0, false
	}
	b.activeConnections++
	activeConnectionsGauge.WithLabelValues(b.InstanceID).Inc()
	return b.activeConnections, true
}

// DecConnections counts a closed connection. At zero it is a no-op that
// forces Closed: the count never goes negative. A Closing record whose last
// connection drains transitions to Closed exactly once.
func (b *Backend) DecConnections() (int, bool) {
	if b.activeConnections == 0 {
		b.status = StatusClosed
		return 0, false
	}

	switch b.status {
	case StatusNormal:
		b.activeConnections--
		activeConnectionsGauge.WithLabelValues(b.InstanceID).Dec()
		return b.activeConnections, true
	case StatusClosing:
		b.activeConnections--
		activeConnectionsGauge.WithLabelValues(b.InstanceID).Dec()
		if b.activeConnections == 0 {
			b.status = StatusClosed
			return 0, false
		}
		return b.activeConnections, true
	default: // StatusClosed
		return 0, false
	}
}

// TryConnect opens one connection to the backend. It fails fast with
// ErrNoBackendAvailable unless the record is Normal; on success the
// connection is counted and the retry policy rehabilitated, on failure the
// policy records the failure.
//
// The dial is synchronous and bounded by the connect timeout. Asynchronous
// connect completion belongs to the event loop; callers needing it should
// arm write interest on the returned socket instead of waiting here.
func (b *Backend) TryConnect(protocol Protocol) (net.Conn, error) {
	if b.status != StatusNormal {
		return nil, ErrNoBackendAvailable
	}

	conn, err := b.dial(protocol)
	if err != nil {
		b.retry.Fail()
		b.failures++
		connectionFailures.WithLabelValues(b.InstanceID).Inc()
		return nil, ErrNoBackendAvailable
	}

	b.retry.Succeed()
	b.IncConnections()
	return conn, nil
}

func (b *Backend) dial(protocol Protocol) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: b.connectTimeout}

	switch protocol {
	case TLS:
		return tls.DialWithDialer(dialer, "tcp", b.Address, b.tlsConfig)
	default:
		conn, err := dialer.Dial("tcp", b.Address)
		if err != nil {
			return nil, err
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		return conn, nil
	}
}
