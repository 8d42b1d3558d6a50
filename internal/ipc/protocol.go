package ipc

import (
	"strings"
)

// HTTP methods accepted by the daemon API.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodDelete = "DELETE"
)

// Request is written to the daemon socket as a single HTTP/1.1 request.
type Request struct {
	Method  string            // GET, POST or DELETE
	Path    string            // resource locator, e.g. "/containers/json"
	Query   map[string]any    // scalars as text, structured values as escaped JSON
	Headers map[string]string // case-insensitive keys
	Body    []byte
}

// Response is one fully read HTTP response. It is built once per exchange
// and not modified afterwards.
type Response struct {
	Proto      string // "1.1"; empty when the status line carries no version
	StatusCode int
	Reason     string
	Header     Header
	Body       []byte
}

// Header holds response headers keyed by lower-cased name.
type Header map[string]string

// Get returns the value for name, matched case-insensitively.
func (h Header) Get(name string) string {
	return h[strings.ToLower(strings.TrimSpace(name))]
}

func (h Header) set(name, value string) {
	h[strings.ToLower(name)] = value
}

// Exit codes shared by the CLI.
const (
	ExitOK       = 0
	ExitOpFailed = 1
	ExitUsageErr = 2
	ExitInternal = 3
)

// StatusClass is the hundreds digit of an HTTP status code.
type StatusClass int

const (
	ClassUnknown StatusClass = iota
	ClassInformational
	ClassSuccess
	ClassRedirection
	ClassClientError
	ClassServerError
)

func (c StatusClass) String() string {
	switch c {
	case ClassInformational:
		return "informational"
	case ClassSuccess:
		return "success"
	case ClassRedirection:
		return "redirection"
	case ClassClientError:
		return "client error"
	case ClassServerError:
		return "server error"
	default:
		return "unknown"
	}
}

// ClassOf returns the status class of code.
func ClassOf(code int) StatusClass {
	switch code / 100 {
	case 1:
		return ClassInformational
	case 2:
		return ClassSuccess
	case 3:
		return ClassRedirection
	case 4:
		return ClassClientError
	case 5:
		return ClassServerError
	default:
		return ClassUnknown
	}
}

// BodyAllowed reports whether a response with code may carry a body.
// Informational, 204 and 304 responses never do, whatever their length
// headers say.
func BodyAllowed(code int) bool {
	if ClassOf(code) == ClassInformational {
		return false
	}
	return code != 204 && code != 304
}
