package ipc

import (
	"errors"
	"fmt"
)

// State names a step of a single request/response exchange.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateRequestSent
	StateStatusRead
	StateHeadersRead
	StateBodyReading
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateRequestSent:
		return "request sent"
	case StateStatusRead:
		return "status read"
	case StateHeadersRead:
		return "headers read"
	case StateBodyReading:
		return "reading body"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConnectionError reports a socket that could not be opened, or an exchange
// aborted by a deadline or cancellation.
type ConnectionError struct {
	SocketPath string
	State      State
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.State == StateIdle {
		return fmt.Sprintf("connecting to daemon at %s: %v", e.SocketPath, e.Err)
	}
	return fmt.Sprintf("daemon connection %s (%s): %v", e.SocketPath, e.State, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a response that does not follow HTTP/1.1 framing.
type ProtocolError struct {
	State  State
	Reason string
	Line   string
}

func (e *ProtocolError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("protocol error (%s): %s: %q", e.State, e.Reason, e.Line)
	}
	return fmt.Sprintf("protocol error (%s): %s", e.State, e.Reason)
}

// TruncationError reports a declared length that runs past the available bytes.
type TruncationError struct {
	What     string // "body", "chunk", "frame header", "frame payload", "line"
	Declared int64
	Got      int64
}

func (e *TruncationError) Error() string {
	if e.Declared <= 0 {
		return fmt.Sprintf("truncated %s: stream ended after %d bytes", e.What, e.Got)
	}
	return fmt.Sprintf("truncated %s: declared %d bytes, got %d", e.What, e.Declared, e.Got)
}

// DecodeError reports a body that does not decode as the shape the caller
// expected.
type DecodeError struct {
	Shape   string
	Segment int
	Text    string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("decoding %s segment %d %q: %v", e.Shape, e.Segment, clip(e.Text, 80), e.Err)
	}
	return fmt.Sprintf("decoding %s: %v", e.Shape, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a failure a caller may reasonably retry
// with a new exchange.
func IsTransient(err error) bool {
	var connErr *ConnectionError
	var truncErr *TruncationError
	return errors.As(err, &connErr) || errors.As(err, &truncErr)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
