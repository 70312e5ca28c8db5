package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

var (
	// ErrShortRead is matched when a peer closes before a full message arrives.
	ErrShortRead = errors.New("short read")
	// ErrWriteFailure is matched when bytes could not be sent to the peer.
	ErrWriteFailure = errors.New("write failure")
)

// ShortReadError reports that the stream ended after Got of Want bytes.
type ShortReadError struct {
	Want int
	Got  int
	Err  error
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read: got %d of %d bytes: %v", e.Got, e.Want, e.Err)
}

func (e *ShortReadError) Unwrap() []error {
	return []error{ErrShortRead, e.Err}
}

// WriteError reports a failed send.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failure: %v", e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWriteFailure, e.Err}
}

// Channel is a reliable exact-size reader and writer over a byte stream.
// Reads and writes may run concurrently with each other, and Close may be
// called from any goroutine to unblock them.
type Channel struct {
	conn      net.Conn
	timeout   time.Duration
	closeOnce sync.Once
	closeErr  error
}

// NewChannel wraps conn.
func NewChannel(conn net.Conn, opts ...channelOption) *Channel {
	ch := &Channel{conn: conn}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// ReadExact blocks until exactly n bytes have been received.
// If the stream ends first the error is a *ShortReadError.
func (ch *Channel) ReadExact(n int) ([]byte, error) {
	if ch.timeout > 0 {
		if err := ch.conn.SetReadDeadline(time.Now().Add(ch.timeout)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(ch.conn, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ShortReadError{Want: n, Got: got, Err: err}
		}
		return nil, fmt.Errorf("read %d bytes from %s: %w", n, ch.RemoteAddr(), err)
	}
	return buf, nil
}

// Write sends all of b or fails with a *WriteError.
func (ch *Channel) Write(b []byte) error {
	if ch.timeout > 0 {
		if err := ch.conn.SetWriteDeadline(time.Now().Add(ch.timeout)); err != nil {
			return &WriteError{Err: err}
		}
	}
	for len(b) > 0 {
		n, err := ch.conn.Write(b)
		if err != nil {
			return &WriteError{Err: err}
		}
		b = b[n:]
	}
	return nil
}

// Close closes the underlying connection. Calling it more than once returns
// the result of the first call.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		ch.closeErr = ch.conn.Close()
	})
	return ch.closeErr
}

// RemoteAddr returns the peer address, or "pipe" for in-memory connections.
func (ch *Channel) RemoteAddr() string {
	if addr := ch.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "pipe"
}

// CreateListeners opens n loopback TCP listeners on free ports.
func CreateListeners(n int) ([]net.Listener, []string, error) {
	listeners := make([]net.Listener, 0, n)
	addresses := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			for _, opened := range listeners {
				opened.Close()
			}
			return nil, nil, err
		}
		listeners = append(listeners, l)
		addresses = append(addresses, l.Addr().String())
	}
	return listeners, addresses, nil
}
