package response

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lydakis/dockrest/internal/ipc"
)

// StreamType tags the output a frame belongs to.
type StreamType byte

const (
	StreamStdout StreamType = 1
	StreamStderr StreamType = 2
)

func (s StreamType) String() string {
	switch s {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", byte(s))
	}
}

// FrameHeaderLen is the size of a frame header: type, three padding bytes,
// big-endian uint32 payload length.
const FrameHeaderLen = 8

var (
	errEmptyBody      = errors.New("empty body")
	errUnknownStream  = errors.New("unknown stream type")
	errorBodyPrefix   = []byte("Error")
	maxFramePayload   = int64(^uint32(0))
	errPayloadTooLong = errors.New("frame payload longer than 4 GiB")
)

// StreamFrame is one chunk of multiplexed output.
type StreamFrame struct {
	Type    StreamType
	Payload []byte
}

// StreamError is a raw-stream body that carries a plain-text daemon error
// instead of frames.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "daemon stream error: " + string(bytes.TrimSpace([]byte(e.Message)))
}

// AppendFrame appends the wire form of f to dst.
func AppendFrame(dst []byte, f StreamFrame) ([]byte, error) {
	if int64(len(f.Payload)) > maxFramePayload {
		return dst, errPayloadTooLong
	}
	var hdr [FrameHeaderLen]byte
	hdr[0] = byte(f.Type)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(f.Payload)))
	dst = append(dst, hdr[:]...)
	return append(dst, f.Payload...), nil
}

// EncodeFrames concatenates frames back to back.
func EncodeFrames(frames ...StreamFrame) ([]byte, error) {
	var out []byte
	for _, f := range frames {
		var err error
		if out, err = AppendFrame(out, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadFrame reads one frame. It returns io.EOF only when r is exhausted
// before the first header byte; a partial header or payload is a
// *ipc.TruncationError and an unknown type is a *ipc.DecodeError.
func ReadFrame(r io.Reader) (StreamFrame, error) {
	var hdr [FrameHeaderLen]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return StreamFrame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return StreamFrame{}, &ipc.TruncationError{What: "frame header", Declared: FrameHeaderLen, Got: int64(n)}
		}
		return StreamFrame{}, err
	}

	typ := StreamType(hdr[0])
	if typ != StreamStdout && typ != StreamStderr {
		return StreamFrame{}, &ipc.DecodeError{Shape: "raw stream", Err: fmt.Errorf("%w %d", errUnknownStream, hdr[0])}
	}

	size := int64(binary.BigEndian.Uint32(hdr[4:8]))
	var payload bytes.Buffer
	got, err := io.CopyN(&payload, r, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return StreamFrame{}, &ipc.TruncationError{What: "frame payload", Declared: size, Got: got}
		}
		return StreamFrame{}, err
	}
	return StreamFrame{Type: typ, Payload: payload.Bytes()}, nil
}

// DecodeRawStream demultiplexes body: stderr frames go to stderr, stdout
// frames to stdout, and every payload is appended to the returned bytes.
//
// A body starting with "Error" is a plain-text daemon error rather than
// frames. It is copied to stderr whole and reported as a *StreamError with
// no payload.
func DecodeRawStream(body []byte, stdout, stderr io.Writer) ([]byte, error) {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if bytes.HasPrefix(body, errorBodyPrefix) {
		if _, err := stderr.Write(body); err != nil {
			return nil, fmt.Errorf("writing stream error: %w", err)
		}
		return nil, &StreamError{Message: string(body)}
	}

	combined := make([]byte, 0, len(body))
	r := bytes.NewReader(body)
	for {
		f, err := ReadFrame(r)
		if errors.Is(err, io.EOF) {
			return combined, nil
		}
		if err != nil {
			return nil, err
		}

		sink := stdout
		if f.Type == StreamStderr {
			sink = stderr
		}
		if _, err := sink.Write(f.Payload); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Type, err)
		}
		combined = append(combined, f.Payload...)
	}
}
