package response

import (
	"bytes"
	"encoding/json"

	"github.com/lydakis/dockrest/internal/ipc"
)

// DecodeJSON parses body as one JSON document. When the body holds more than
// one non-empty CRLF-separated segment, each segment is parsed on its own
// and the result is a []any in body order.
func DecodeJSON(body []byte) (any, error) {
	segments := splitSegments(body, []byte("\r\n"))
	if len(segments) == 0 {
		return nil, &ipc.DecodeError{Shape: "json", Err: errEmptyBody}
	}
	if len(segments) == 1 {
		var v any
		if err := json.Unmarshal(segments[0], &v); err != nil {
			return nil, &ipc.DecodeError{Shape: "json", Text: string(segments[0]), Err: err}
		}
		return v, nil
	}

	values := make([]any, 0, len(segments))
	for i, seg := range segments {
		var v any
		if err := json.Unmarshal(seg, &v); err != nil {
			return nil, &ipc.DecodeError{Shape: "json", Segment: i, Text: string(seg), Err: err}
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeJSONInto unmarshals a single-document body into dest.
func DecodeJSONInto(body []byte, dest any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return &ipc.DecodeError{Shape: "json", Err: errEmptyBody}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &ipc.DecodeError{Shape: "json", Text: string(body), Err: err}
	}
	return nil
}

// DecodeJSONSequence splits body into newline-delimited documents (a
// trailing CR on each line is dropped) and validates each one. Blank lines
// are skipped; an empty body is an empty sequence.
func DecodeJSONSequence(body []byte) ([]json.RawMessage, error) {
	segments := splitSegments(body, []byte("\n"))
	out := make([]json.RawMessage, 0, len(segments))
	for i, seg := range segments {
		seg = bytes.TrimSuffix(seg, []byte("\r"))
		if !json.Valid(seg) {
			var probe any
			err := json.Unmarshal(seg, &probe)
			return nil, &ipc.DecodeError{Shape: "json sequence", Segment: i, Text: string(seg), Err: err}
		}
		out = append(out, json.RawMessage(seg))
	}
	return out, nil
}

func splitSegments(body, sep []byte) [][]byte {
	var out [][]byte
	for _, seg := range bytes.Split(body, sep) {
		if len(bytes.TrimSpace(seg)) == 0 {
			continue
		}
		out = append(out, seg)
	}
	return out
}
