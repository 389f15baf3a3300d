package moyasar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	ierr "github.com/funduq/funduq/internal/errors"
)

// TransportErrorKind classifies a failed outbound call
type TransportErrorKind string

const (
	TransportErrorDNS               TransportErrorKind = "dns_failure"
	TransportErrorConnectionRefused TransportErrorKind = "connection_refused"
	TransportErrorConnectionReset   TransportErrorKind = "connection_reset"
	TransportErrorTimeout           TransportErrorKind = "timeout"
	TransportErrorNetwork           TransportErrorKind = "network"
)

// TransportError is returned (wrapped) when a request never produced an HTTP
// response. Use errors.As to read the kind.
type TransportError struct {
	Kind TransportErrorKind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("moyasar %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same call may succeed. A failed name
// lookup usually means bad configuration, so it is not retryable.
func (e *TransportError) Retryable() bool {
	return e.Kind != TransportErrorDNS
}

// classifyTransportError maps a net/http client error onto the closed set of
// kinds. Order matters: a DNS lookup that timed out is a timeout.
func classifyTransportError(op string, err error) *TransportError {
	kind := TransportErrorNetwork

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = TransportErrorTimeout
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		kind = TransportErrorDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = TransportErrorConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		kind = TransportErrorConnectionReset
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = TransportErrorTimeout
	}

	return &TransportError{Kind: kind, Op: op, Err: err}
}

func (e *TransportError) toError() error {
	b := ierr.WithError(e).
		WithReportableDetails(map[string]interface{}{
			"operation": e.Op,
			"kind":      string(e.Kind),
		})
	if e.Kind == TransportErrorTimeout {
		return ierr.WithError(b.WithHint("The payment provider did not respond in time").Mark(ierr.ErrTransport)).
			Mark(ierr.ErrTimeout)
	}
	return b.WithHint("Unable to connect to the payment provider").Mark(ierr.ErrTransport)
}

// deadlineConn applies a fresh read or write deadline before every I/O call so
// a stalled socket cannot outlive the configured timeouts.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}
