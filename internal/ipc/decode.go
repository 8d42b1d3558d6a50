package ipc

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const maxLineBytes = 64 << 10

var statusLineRe = regexp.MustCompile(`(?i)^HTTP(?:/(\d+\.\d+))?\s+(\d{3})(?:\s+(.*))?$`)

// responseReader parses one response strictly in order: status line,
// header block, then a body framed by Content-Length or chunked encoding.
type responseReader struct {
	br      *bufio.Reader
	maxBody int64
	state   State
}

func readResponse(br *bufio.Reader, maxBody int64) (*Response, error) {
	r := &responseReader{br: br, maxBody: maxBody, state: StateRequestSent}
	return r.read()
}

func (r *responseReader) read() (*Response, error) {
	resp, err := r.readStatus()
	if err != nil {
		return nil, err
	}
	r.state = StateStatusRead

	if resp.Header, err = r.readHeaders(); err != nil {
		return nil, err
	}
	r.state = StateHeadersRead

	if !BodyAllowed(resp.StatusCode) {
		r.state = StateComplete
		return resp, nil
	}

	r.state = StateBodyReading
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Transfer-Encoding")), "chunked") {
		resp.Body, err = r.readChunked()
	} else {
		resp.Body, err = r.readFixed(resp.Header.Get("Content-Length"))
	}
	if err != nil {
		return nil, err
	}
	r.state = StateComplete
	return resp, nil
}

func (r *responseReader) readStatus() (*Response, error) {
	line, err := r.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return nil, &ProtocolError{State: r.state, Reason: "empty response"}
		}
		return nil, r.fail(err, "status line", 0, int64(len(line)))
	}

	m := statusLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, &ProtocolError{State: r.state, Reason: "malformed status line", Line: line}
	}
	code, _ := strconv.Atoi(m[2])
	return &Response{
		Proto:      m[1],
		StatusCode: code,
		Reason:     m[3],
	}, nil
}

func (r *responseReader) readHeaders() (Header, error) {
	header := make(Header)
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, r.fail(err, "header block", 0, int64(len(line)))
		}
		if line == "" {
			return header, nil
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, &ProtocolError{State: r.state, Reason: "malformed header line", Line: line}
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			return nil, &ProtocolError{State: r.state, Reason: "empty header name", Line: line}
		}
		header.set(key, strings.TrimSpace(line[idx+1:]))
	}
}

func (r *responseReader) readFixed(contentLength string) ([]byte, error) {
	if strings.TrimSpace(contentLength) == "" {
		return nil, &ProtocolError{State: r.state, Reason: "missing Content-Length for response with body"}
	}
	digits := leading(strings.TrimSpace(contentLength), isDecimal)
	if digits == "" {
		return nil, &ProtocolError{State: r.state, Reason: "unparseable Content-Length", Line: contentLength}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil, &ProtocolError{State: r.state, Reason: "Content-Length out of range", Line: contentLength}
	}
	if n > r.maxBody {
		return nil, &ProtocolError{State: r.state, Reason: "body exceeds limit of " + strconv.FormatInt(r.maxBody, 10) + " bytes", Line: contentLength}
	}

	body := make([]byte, n)
	got, err := io.ReadFull(r.br, body)
	if err != nil {
		return nil, r.fail(err, "body", n, int64(got))
	}
	return body, nil
}

func (r *responseReader) readChunked() ([]byte, error) {
	var body []byte
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, r.fail(err, "chunk size line", 0, int64(len(body)))
		}
		digits := leading(strings.TrimSpace(line), isHex)
		if digits == "" {
			return nil, &ProtocolError{State: r.state, Reason: "malformed chunk size", Line: line}
		}
		size, err := strconv.ParseInt(digits, 16, 64)
		if err != nil {
			return nil, &ProtocolError{State: r.state, Reason: "chunk size out of range", Line: line}
		}
		if size == 0 {
			r.discardTrailers()
			return body, nil
		}
		if size > r.maxBody-int64(len(body)) {
			return nil, &ProtocolError{State: r.state, Reason: "body exceeds limit of " + strconv.FormatInt(r.maxBody, 10) + " bytes"}
		}

		start := len(body)
		body = append(body, make([]byte, size)...)
		got, err := io.ReadFull(r.br, body[start:])
		if err != nil {
			return nil, r.fail(err, "chunk", size, int64(got))
		}

		var crlf [2]byte
		n, err := io.ReadFull(r.br, crlf[:])
		if err != nil {
			return nil, r.fail(err, "chunk", size+2, size+int64(n))
		}
		if crlf != [2]byte{'\r', '\n'} {
			return nil, &ProtocolError{State: r.state, Reason: "chunk not terminated by CRLF"}
		}
	}
}

// discardTrailers skips trailer fields after the last chunk. A stream that
// ends without them is still a complete body.
func (r *responseReader) discardTrailers() {
	for {
		line, err := r.readLine()
		if err != nil || line == "" {
			return
		}
	}
}

// readLine returns one line without its CRLF (or bare LF). On a stream that
// ends mid-line it returns the partial text together with io.EOF.
func (r *responseReader) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return "", &ProtocolError{State: r.state, Reason: "line exceeds " + strconv.Itoa(maxLineBytes) + " bytes"}
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(line), err
	}
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

// fail converts a read error: a closed stream is a truncation, anything
// else (deadline, reset) is a connection failure. Protocol errors pass
// through.
func (r *responseReader) fail(err error, what string, declared, got int64) error {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &TruncationError{What: what, Declared: declared, Got: got}
	}
	return &ConnectionError{State: r.state, Err: err}
}

func leading(s string, keep func(byte) bool) string {
	i := 0
	for i < len(s) && keep(s[i]) {
		i++
	}
	return s[:i]
}

func isDecimal(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDecimal(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
