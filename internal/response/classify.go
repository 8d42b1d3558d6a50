package response

import (
	"fmt"

	"github.com/lydakis/dockrest/internal/ipc"
)

// Shape is the body layout an operation's successful response carries.
type Shape int

const (
	ShapeNone         Shape = iota // status only; body ignored
	ShapeJSON                      // one JSON document, or CRLF-separated documents
	ShapeJSONSequence              // newline-delimited progress documents
	ShapeRawStream                 // multiplexed stdout/stderr frames
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeJSON:
		return "json"
	case ShapeJSONSequence:
		return "json sequence"
	case ShapeRawStream:
		return "raw stream"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Operation names a daemon call together with its status-code messages and
// the body shape it returns. Operations are plain values handed to Classify
// and Decode with each response; nothing is registered globally.
type Operation struct {
	Name  string
	Codes map[int]string
	Shape Shape
}

// Message returns the table message for code, or "" if the table has none.
func (op Operation) Message(code int) string {
	return op.Codes[code]
}

// Outcome is the classification of one response.
type Outcome struct {
	Operation  string
	StatusCode int
	Success    bool
	Message    string
	Body       []byte // raw body, kept for diagnostics on failure
}

// Err returns an *OperationError for a failed outcome and nil otherwise.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	return &OperationError{
		Operation:  o.Operation,
		StatusCode: o.StatusCode,
		Message:    o.Message,
		Body:       o.Body,
	}
}

// Classify decides success by status class alone: any 2xx succeeds. The
// operation's table only supplies the message.
func Classify(op Operation, resp *ipc.Response) Outcome {
	return Outcome{
		Operation:  op.Name,
		StatusCode: resp.StatusCode,
		Success:    ipc.ClassOf(resp.StatusCode) == ipc.ClassSuccess,
		Message:    op.Message(resp.StatusCode),
		Body:       resp.Body,
	}
}

// OperationError is a well-formed response whose status is not a success.
// It is an expected outcome (e.g. "no such container"), not a transport
// fault.
type OperationError struct {
	Operation  string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *OperationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ipc.ClassOf(e.StatusCode).String()
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Operation, msg, e.StatusCode)
}
