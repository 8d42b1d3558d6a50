package response

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lydakis/dockrest/internal/ipc"
)

// Body is a decoded response body. Exactly one field matching Shape is set.
type Body struct {
	Shape    Shape
	Value    any               // ShapeJSON
	Sequence []json.RawMessage // ShapeJSONSequence
	Stream   []byte            // ShapeRawStream, combined payload
}

// Sinks receive demultiplexed raw-stream output.
type Sinks struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Decode decodes resp.Body according to op.Shape. The caller picks the
// shape from the operation it issued; only the "Error" prefix of a raw
// stream is inspected at decode time.
func Decode(op Operation, resp *ipc.Response, sinks Sinks) (Body, error) {
	out := Body{Shape: op.Shape}
	var err error
	switch op.Shape {
	case ShapeNone:
	case ShapeJSON:
		out.Value, err = DecodeJSON(resp.Body)
	case ShapeJSONSequence:
		out.Sequence, err = DecodeJSONSequence(resp.Body)
	case ShapeRawStream:
		out.Stream, err = DecodeRawStream(resp.Body, sinks.Stdout, sinks.Stderr)
	default:
		err = fmt.Errorf("%s: unsupported body shape %s", op.Name, op.Shape)
	}
	if err != nil {
		return Body{Shape: op.Shape}, err
	}
	return out, nil
}
