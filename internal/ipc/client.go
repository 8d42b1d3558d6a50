package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/lydakis/dockrest/internal/httpheaders"
	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes int64 = 256 << 20

// Sender performs one request/response exchange.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Ensure Client implements Sender at compile time.
var _ Sender = (*Client)(nil)

// Client sends requests to the daemon over a Unix socket. Every call opens
// its own connection and closes it once the response is read; a Client only
// holds configuration and is safe for concurrent use.
type Client struct {
	socketPath string
	timeout    time.Duration
	maxBody    int64
	headers    map[string]string
	log        zerolog.Logger
	dialer     net.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each exchange, from dial to the last body byte.
// Zero, the default, blocks until the daemon answers or the context ends.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxBodyBytes caps the size of a response body.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHeaders adds headers sent with every request unless the request sets
// the same header itself.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.headers = httpheaders.Merge(c.headers, headers, true) }
}

// WithLogger traces request and response heads at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the daemon listening on socketPath.
func NewClient(socketPath string, opts ...Option) *Client {
	c := &Client{
		socketPath: socketPath,
		maxBody:    defaultMaxBodyBytes,
		headers: map[string]string{
			"Host":       "docker",
			"User-Agent": "dockrest",
			"Accept":     "*/*",
			"Connection": "close",
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send writes req to a fresh connection and reads the complete response.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}

	headers := requestHeaders(req, c.headers)
	wire, err := encodeRequest(req, headers)
	if err != nil {
		return nil, err
	}
	c.traceRequest(req, headers)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, &ConnectionError{SocketPath: c.socketPath, State: StateIdle, Err: diagnoseDial(c.socketPath, err)}
	}
	defer conn.Close()
	c.tracePeer(conn)

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(wire); err != nil {
		return nil, c.abort(ctx, &ConnectionError{State: StateConnected, Err: err})
	}

	resp, err := readResponse(bufio.NewReader(conn), c.maxBody)
	if err != nil {
		return nil, c.abort(ctx, err)
	}
	c.traceResponse(resp)
	return resp, nil
}

// abort attaches the socket path to connection errors and reports the
// context error instead of the raw deadline error once the context is done.
func (c *Client) abort(ctx context.Context, err error) error {
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		if ctx.Err() == nil {
			return err
		}
		connErr = &ConnectionError{State: StateBodyReading}
	}
	out := *connErr
	out.SocketPath = c.socketPath
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.Err = ctxErr
	} else if errors.Is(out.Err, os.ErrDeadlineExceeded) {
		// the socket deadline can fire just before the context timer
		out.Err = context.DeadlineExceeded
	}
	return &out
}

func (c *Client) traceRequest(req *Request, headers map[string]string) {
	if c.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	target, _ := req.Target()
	c.log.Debug().Str("method", req.Method).Str("target", target).Int("body_bytes", len(req.Body)).Msg("request")
	for _, key := range httpheaders.SortedKeys(headers) {
		c.log.Debug().Str("header", key).Str("value", headers[key]).Msg("request header")
	}
}

func (c *Client) tracePeer(conn net.Conn) {
	if c.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	cred, err := peerCredentials(conn)
	if err != nil {
		c.log.Debug().Err(err).Msg("daemon peer")
		return
	}
	c.log.Debug().Int("uid", cred.UID).Int("pid", cred.PID).Msg("daemon peer")
}

func (c *Client) traceResponse(resp *Response) {
	if c.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	c.log.Debug().Int("status", resp.StatusCode).Str("reason", resp.Reason).Int("body_bytes", len(resp.Body)).Msg("response")
	for key, value := range resp.Header {
		c.log.Debug().Str("header", key).Str("value", value).Msg("response header")
	}
}
