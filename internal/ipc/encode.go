package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/lydakis/dockrest/internal/httpheaders"
	"github.com/spf13/cast"
)

// Target returns the request path with its query string appended. The path
// is returned unchanged when there are no parameters.
func (r *Request) Target() (string, error) {
	query, err := EncodeQuery(r.Query)
	if err != nil {
		return "", err
	}
	if query == "" {
		return r.Path, nil
	}
	return r.Path + "?" + query, nil
}

// EncodeQuery renders params as key=value pairs joined by '&', keys sorted.
// Maps, slices, arrays and structs are JSON-encoded first.
func EncodeQuery(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := queryValue(params[k])
		if err != nil {
			return "", fmt.Errorf("query parameter %q: %w", k, err)
		}
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&"), nil
}

func queryValue(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if isStructured(v) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return cast.ToStringE(v)
}

func isStructured(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Array:
		return true
	case reflect.Slice:
		// []byte reads as text
		return rv.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

// requestHeaders merges defaults under the caller's headers and pins
// Content-Length to the body size.
func requestHeaders(req *Request, defaults map[string]string) map[string]string {
	headers := httpheaders.Merge(nil, req.Headers, true)
	headers = httpheaders.Merge(headers, defaults, false)
	if len(req.Body) > 0 || req.Method == MethodPost {
		headers = httpheaders.Set(headers, "Content-Length", strconv.Itoa(len(req.Body)))
	}
	return headers
}

// encodeRequest renders the request line, header block and body. Nothing
// follows the body.
func encodeRequest(req *Request, headers map[string]string) ([]byte, error) {
	switch req.Method {
	case MethodGet, MethodPost, MethodDelete:
	default:
		return nil, &ProtocolError{State: StateIdle, Reason: "unsupported method", Line: req.Method}
	}
	if req.Path == "" || !strings.HasPrefix(req.Path, "/") {
		return nil, &ProtocolError{State: StateIdle, Reason: "request path must start with /", Line: req.Path}
	}

	target, err := req.Target()
	if err != nil {
		return nil, &ProtocolError{State: StateIdle, Reason: err.Error()}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", req.Method, target)
	for _, key := range httpheaders.SortedKeys(headers) {
		value := headers[key]
		if strings.ContainsAny(key, "\r\n:") || strings.ContainsAny(value, "\r\n") {
			return nil, &ProtocolError{State: StateIdle, Reason: "invalid header", Line: key}
		}
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}
	buf.WriteString("\r\n")
	buf.Write(req.Body)
	return buf.Bytes(), nil
}
