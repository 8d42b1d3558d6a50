// Package ipctest runs a scripted daemon on a Unix socket so client code can
// be exercised against real wire bytes.
package ipctest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
)

// Exchange is one request received by the Daemon.
type Exchange struct {
	Raw    []byte // request bytes exactly as they arrived
	Method string
	Target string // path plus raw query
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Handler returns the raw bytes to write back before the connection closes.
type Handler func(ex *Exchange) []byte

// Daemon listens on a Unix socket and answers each connection once.
type Daemon struct {
	socketPath string
	handler    Handler
	listener   net.Listener
	wg         sync.WaitGroup

	mu        sync.Mutex
	exchanges []*Exchange
}

// Start listens on a fresh socket and stops the daemon when t finishes.
func Start(t testing.TB, handler Handler) *Daemon {
	t.Helper()

	// keep the path short; sun_path is ~104 bytes on darwin
	dir, err := os.MkdirTemp("", "dockrest")
	if err != nil {
		t.Fatalf("creating socket dir: %v", err)
	}
	d := &Daemon{
		socketPath: filepath.Join(dir, "d.sock"),
		handler:    handler,
	}
	if err := d.listen(); err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("starting fake daemon: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		_ = os.RemoveAll(dir)
	})
	return d
}

// SocketPath returns the path clients should dial.
func (d *Daemon) SocketPath() string {
	return d.socketPath
}

// Exchanges returns the requests received so far, in arrival order.
func (d *Daemon) Exchanges() []*Exchange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Exchange(nil), d.exchanges...)
}

// Stop closes the listener and waits for in-flight connections.
func (d *Daemon) Stop() {
	if d.listener != nil {
		d.listener.Close()
	}
	d.wg.Wait()
	os.Remove(d.socketPath)
}

func (d *Daemon) listen() error {
	ln, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", d.socketPath, err)
	}
	d.listener = ln

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.acceptLoop()
	}()
	return nil
}

func (d *Daemon) acceptLoop() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return // listener closed
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer conn.Close()
			d.handleConn(conn)
		}()
	}
}

func (d *Daemon) handleConn(conn net.Conn) {
	var raw bytes.Buffer
	br := bufio.NewReader(io.TeeReader(conn, &raw))
	req, err := http.ReadRequest(br)
	if err != nil {
		_, _ = conn.Write(Reply(400, nil, []byte("bad request\n")))
		return
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		_, _ = conn.Write(Reply(400, nil, []byte("bad body\n")))
		return
	}

	ex := &Exchange{
		Raw:    raw.Bytes(),
		Method: req.Method,
		Target: req.RequestURI,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Header: req.Header,
		Body:   body,
	}
	d.mu.Lock()
	d.exchanges = append(d.exchanges, ex)
	d.mu.Unlock()

	_, _ = conn.Write(d.handler(ex))
}

// Reply renders a response with a Content-Length header matching body.
// Headers are written in sorted order.
func Reply(status int, headers map[string]string, body []byte) []byte {
	all := map[string]string{"Content-Length": strconv.Itoa(len(body))}
	for k, v := range headers {
		all[k] = v
	}
	var buf bytes.Buffer
	writeHead(&buf, status, all)
	buf.Write(body)
	return buf.Bytes()
}

// Chunked renders a response whose body is sent as the given chunks
// followed by the zero-length terminator.
func Chunked(status int, headers map[string]string, chunks ...[]byte) []byte {
	all := map[string]string{"Transfer-Encoding": "chunked"}
	for k, v := range headers {
		all[k] = v
	}
	var buf bytes.Buffer
	writeHead(&buf, status, all)
	for _, chunk := range chunks {
		fmt.Fprintf(&buf, "%x\r\n", len(chunk))
		buf.Write(chunk)
		buf.WriteString("\r\n")
	}
	buf.WriteString("0\r\n\r\n")
	return buf.Bytes()
}

// Route dispatches on "METHOD /path"; unknown routes get a 404.
func Route(routes map[string]func(ex *Exchange) []byte) Handler {
	return func(ex *Exchange) []byte {
		if fn, ok := routes[ex.Method+" "+ex.Path]; ok {
			return fn(ex)
		}
		return Reply(404, map[string]string{"Content-Type": "text/plain"}, []byte("page not found\n"))
	}
}

func writeHead(buf *bytes.Buffer, status int, headers map[string]string) {
	fmt.Fprintf(buf, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s: %s\r\n", k, headers[k])
	}
	buf.WriteString("\r\n")
}
