package response

import (
	"context"
	"errors"
	"testing"

	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/ipc/ipctest"
)

var createOp = Operation{
	Name: "create",
	Codes: map[int]string{
		201: "no error",
		404: "no such container",
		406: "impossible to attach (container not running)",
		500: "server error",
	},
	Shape: ShapeJSON,
}

func TestClassifySuccessWithoutTableEntry(t *testing.T) {
	op := Operation{Name: "empty"}
	for code := 200; code <= 299; code++ {
		out := Classify(op, &ipc.Response{StatusCode: code})
		if !out.Success {
			t.Fatalf("Classify(%d).Success = false, want true", code)
		}
		if out.Message != "" {
			t.Fatalf("Classify(%d).Message = %q, want empty", code, out.Message)
		}
		if out.Err() != nil {
			t.Fatalf("Classify(%d).Err() = %v, want nil", code, out.Err())
		}
	}
}

func TestClassifyTableMessageDoesNotDecideSuccess(t *testing.T) {
	start := Operation{Name: "start", Codes: map[int]string{204: "no error", 304: "container already started"}}

	out := Classify(start, &ipc.Response{StatusCode: 304})
	if out.Success {
		t.Fatal("Classify(304).Success = true, want false")
	}
	if out.Message != "container already started" {
		t.Fatalf("Classify(304).Message = %q", out.Message)
	}

	out = Classify(start, &ipc.Response{StatusCode: 101})
	if out.Success {
		t.Fatal("Classify(101).Success = true, want false")
	}
}

func TestClassifyFailureKeepsBody(t *testing.T) {
	body := []byte(`{"message":"No such image: alpine:latest"}`)
	out := Classify(createOp, &ipc.Response{StatusCode: 404, Body: body})
	if out.Success {
		t.Fatal("Success = true, want false")
	}
	if out.Message != "no such container" {
		t.Fatalf("Message = %q, want %q", out.Message, "no such container")
	}

	var opErr *OperationError
	if !errors.As(out.Err(), &opErr) {
		t.Fatalf("Err() = %v, want *OperationError", out.Err())
	}
	if string(opErr.Body) != string(body) || opErr.StatusCode != 404 || opErr.Operation != "create" {
		t.Fatalf("OperationError = %+v", opErr)
	}
	if got := opErr.Error(); got != "create: no such container (status 404)" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestOperationErrorWithoutMessageNamesStatusClass(t *testing.T) {
	err := Classify(Operation{Name: "show"}, &ipc.Response{StatusCode: 502}).Err()
	if got := err.Error(); got != "show: server error (status 502)" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestScenarioCreateNotFound(t *testing.T) {
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"POST /containers/create": func(ex *ipctest.Exchange) []byte {
			return ipctest.Reply(404, map[string]string{"Content-Type": "application/json"}, []byte(`{"message":"No such image: alpine"}`))
		},
	}))

	resp, err := ipc.NewClient(d.SocketPath()).Send(context.Background(), &ipc.Request{
		Method:  ipc.MethodPost,
		Path:    "/containers/create",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(`{"Image":"alpine"}`),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	out := Classify(createOp, resp)
	if out.Success {
		t.Fatal("Success = true, want false")
	}
	if out.Message != "no such container" {
		t.Fatalf("Message = %q", out.Message)
	}
	if string(out.Body) != `{"message":"No such image: alpine"}` {
		t.Fatalf("Body = %q", out.Body)
	}
}
