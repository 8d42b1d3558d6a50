package resource

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/ipc/ipctest"
	"github.com/lydakis/dockrest/internal/response"
	"github.com/rs/zerolog"
)

type recordingReporter struct {
	mu       sync.Mutex
	statuses []int
	outcomes []response.Outcome
}

func (r *recordingReporter) Status(resp *ipc.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, resp.StatusCode)
}

func (r *recordingReporter) Outcome(out response.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, out)
}

func (r *recordingReporter) operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, out := range r.outcomes {
		names = append(names, out.Operation)
	}
	return names
}

func jsonReply(status int, body string) []byte {
	return ipctest.Reply(status, map[string]string{"Content-Type": "application/json"}, []byte(body))
}

func noContent(*ipctest.Exchange) []byte { return ipctest.Reply(204, nil, nil) }

func TestIndexReturnsResourcesByID(t *testing.T) {
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"GET /containers/json": func(ex *ipctest.Exchange) []byte {
			return jsonReply(200, `[{"Id":"aaa","Names":["/web"]},{"Id":"bbb"}]`)
		},
	}))
	rep := &recordingReporter{}
	containers := Containers(ipc.NewClient(d.SocketPath()), WithReporter(rep))

	got, err := containers.Index(context.Background(), map[string]any{"all": true})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "aaa" || got[1].ID != "bbb" {
		t.Fatalf("Index() = %+v", got)
	}
	if q := d.Exchanges()[0].Query.Get("all"); q != "true" {
		t.Fatalf("all = %q, want true", q)
	}
	if len(rep.statuses) != 1 || rep.statuses[0] != 200 {
		t.Fatalf("reported statuses = %v, want [200]", rep.statuses)
	}
}

func TestIndexFailureReturnsEmptySlice(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte {
		return jsonReply(500, `{"message":"boom"}`)
	})
	got, err := Images(ipc.NewClient(d.SocketPath())).Index(context.Background(), nil)

	var opErr *response.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Index() error = %v, want *response.OperationError", err)
	}
	if opErr.Message != "server error" {
		t.Fatalf("Message = %q, want server error", opErr.Message)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Index() = %#v, want empty non-nil slice", got)
	}
	if d.Exchanges()[0].Path != "/images/json" {
		t.Fatalf("path = %q", d.Exchanges()[0].Path)
	}
}

func TestIndexMalformedBodyIsDecodeError(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte { return jsonReply(200, `[{"Names":[]}]`) })
	_, err := Containers(ipc.NewClient(d.SocketPath())).Index(context.Background(), nil)
	var decErr *ipc.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Index() error = %v, want *ipc.DecodeError", err)
	}
}

func TestFindFiltersByExactName(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte { return jsonReply(200, `[{"Id":"f1"}]`) })
	r, err := Containers(ipc.NewClient(d.SocketPath())).Find(context.Background(), "web")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if r == nil || r.ID != "f1" {
		t.Fatalf("Find() = %+v, want f1", r)
	}
	ex := d.Exchanges()[0]
	if got := ex.Query.Get("filters"); got != `{"name":["/web$"]}` {
		t.Fatalf("filters = %q", got)
	}
	if got := ex.Query.Get("all"); got != "true" {
		t.Fatalf("all = %q", got)
	}
}

func TestFindNoMatch(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte { return jsonReply(200, `[]`) })
	r, err := Containers(ipc.NewClient(d.SocketPath())).Find(context.Background(), "ghost")
	if err != nil || r != nil {
		t.Fatalf("Find() = %+v, %v; want nil, nil", r, err)
	}
}

func TestCreateSendsJSONFields(t *testing.T) {
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"POST /v1.43/containers/create": func(ex *ipctest.Exchange) []byte {
			return jsonReply(201, `{"Id":"abc123","Warnings":[]}`)
		},
	}))
	containers := Containers(ipc.NewClient(d.SocketPath()), WithAPIVersion("1.43"))

	r, err := containers.Create(context.Background(), map[string]any{"name": "web"}, map[string]any{"Image": "alpine", "Cmd": []string{"echo", "hi"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.ID != "abc123" {
		t.Fatalf("ID = %q, want abc123", r.ID)
	}
	ex := d.Exchanges()[0]
	if ex.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type = %q", ex.Header.Get("Content-Type"))
	}
	if string(ex.Body) != `{"Cmd":["echo","hi"],"Image":"alpine"}` {
		t.Fatalf("body = %s", ex.Body)
	}
	if ex.Query.Get("name") != "web" {
		t.Fatalf("name = %q", ex.Query.Get("name"))
	}
}

func TestCreateLogsWarnings(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte {
		return jsonReply(201, `{"Id":"abc123","Warnings":["memory limit ignored"]}`)
	})
	var logs bytes.Buffer
	log := zerolog.New(&logs)

	r, err := Containers(ipc.NewClient(d.SocketPath()), WithLogger(log)).Create(context.Background(), nil, map[string]any{"Image": "alpine"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.ID != "abc123" {
		t.Fatalf("ID = %q, want abc123", r.ID)
	}
	if !strings.Contains(logs.String(), `"message":"memory limit ignored"`) {
		t.Fatalf("logs = %s, want warning", logs.String())
	}
}

func TestCreateWithoutIDIsDecodeError(t *testing.T) {
	for _, body := range []string{`{"Warnings":[]}`, `not json`, ``} {
		d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte {
			return jsonReply(201, body)
		})
		_, err := Containers(ipc.NewClient(d.SocketPath())).Create(context.Background(), nil, map[string]any{"Image": "alpine"})
		var decErr *ipc.DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("Create(%q) error = %v, want *ipc.DecodeError", body, err)
		}
	}
}

func TestCreateNotFound(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte {
		return jsonReply(404, `{"message":"No such image: alpine"}`)
	})
	rep := &recordingReporter{}
	r, err := Containers(ipc.NewClient(d.SocketPath()), WithReporter(rep)).Create(context.Background(), nil, map[string]any{"Image": "alpine"})
	if r != nil {
		t.Fatalf("Create() = %+v, want nil", r)
	}
	var opErr *response.OperationError
	if !errors.As(err, &opErr) || opErr.Message != "no such container" {
		t.Fatalf("Create() error = %v, want no such container", err)
	}
	if out := rep.outcomes[0]; out.Success || !strings.Contains(string(out.Body), "No such image") {
		t.Fatalf("reported outcome = %+v", out)
	}
}

func TestBuildRelaysProgress(t *testing.T) {
	progress := `{"stream":"Step 1/2 : FROM alpine\n"}` + "\r\n" +
		`{"stream":" ---> 1234\n"}` + "\r\n" +
		`{"aux":{"ID":"sha256:feed"}}` + "\r\n"
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"POST /build": func(ex *ipctest.Exchange) []byte {
			return ipctest.Chunked(200, nil, []byte(progress))
		},
	}))
	var stdout, stderr bytes.Buffer
	images := Images(ipc.NewClient(d.SocketPath()), WithOutput(&stdout, &stderr))

	id, err := images.Build(context.Background(), map[string]any{"t": "demo"}, []byte("tarball"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if id != "sha256:feed" {
		t.Fatalf("image id = %q", id)
	}
	if stdout.String() != "Step 1/2 : FROM alpine\n ---> 1234\n" {
		t.Fatalf("stdout = %q", stdout.String())
	}
	ex := d.Exchanges()[0]
	if ex.Header.Get("Content-Type") != "application/x-tar" || string(ex.Body) != "tarball" {
		t.Fatalf("request = %q %q", ex.Header.Get("Content-Type"), ex.Body)
	}
}

func TestBuildErrorLineFails(t *testing.T) {
	progress := `{"stream":"Step 1/1 : RUN false\n"}` + "\n" +
		`{"error":"returned a non-zero code: 1","errorDetail":{"code":1,"message":"returned a non-zero code: 1"}}` + "\n"
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte { return ipctest.Reply(200, nil, []byte(progress)) })
	var stdout, stderr bytes.Buffer
	_, err := Images(ipc.NewClient(d.SocketPath()), WithOutput(&stdout, &stderr)).Build(context.Background(), nil, nil)

	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("Build() error = %v, want *BuildError", err)
	}
	if stderr.String() != "returned a non-zero code: 1\n" {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if d.Exchanges()[0].Header.Get("Content-Type") != "" {
		t.Fatal("empty build context carried a Content-Type")
	}
}

func TestRunCreatesThenStarts(t *testing.T) {
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"POST /containers/create":   func(ex *ipctest.Exchange) []byte { return jsonReply(201, `{"Id":"r1"}`) },
		"POST /containers/r1/start": noContent,
	}))
	rep := &recordingReporter{}
	r, err := Containers(ipc.NewClient(d.SocketPath()), WithReporter(rep)).Run(context.Background(), nil, map[string]any{"Image": "alpine"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.ID != "r1" {
		t.Fatalf("ID = %q", r.ID)
	}
	if got := strings.Join(rep.operations(), ","); got != "create,start" {
		t.Fatalf("operations = %s, want create,start", got)
	}
}

func TestExecRunsToCompletionAndDeletes(t *testing.T) {
	logs, _ := response.EncodeFrames(response.StreamFrame{Type: response.StreamStdout, Payload: []byte("hi\n")})
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"POST /containers/create":   func(ex *ipctest.Exchange) []byte { return jsonReply(201, `{"Id":"x1"}`) },
		"POST /containers/x1/start": noContent,
		"POST /containers/x1/wait":  func(ex *ipctest.Exchange) []byte { return jsonReply(200, `{"StatusCode":3}`) },
		"GET /containers/x1/logs":   func(ex *ipctest.Exchange) []byte { return ipctest.Reply(200, nil, logs) },
		"DELETE /containers/x1":     noContent,
	}))
	var stdout bytes.Buffer
	rep := &recordingReporter{}
	containers := Containers(ipc.NewClient(d.SocketPath()), WithReporter(rep), WithOutput(&stdout, nil))

	res, err := containers.Exec(context.Background(), nil, map[string]any{"Image": "alpine"}, map[string]any{"stdout": 1})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if !strings.HasPrefix(res.Name, "dockrest-") || len(res.Name) != len("dockrest-")+36 {
		t.Fatalf("Name = %q, want dockrest-<uuid>", res.Name)
	}
	if res.ExitCode != 3 || string(res.Logs) != "hi\n" || stdout.String() != "hi\n" {
		t.Fatalf("Exec() = %+v, stdout %q", res, stdout.String())
	}
	if got := strings.Join(rep.operations(), ","); got != "create,start,wait,logs,delete" {
		t.Fatalf("operations = %s", got)
	}
	if got := d.Exchanges()[0].Query.Get("name"); got != res.Name {
		t.Fatalf("create name = %q, want %q", got, res.Name)
	}
}

func TestExecDeletesAfterFailedStart(t *testing.T) {
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"POST /containers/create":   func(ex *ipctest.Exchange) []byte { return jsonReply(201, `{"Id":"x2"}`) },
		"POST /containers/x2/start": func(ex *ipctest.Exchange) []byte { return jsonReply(500, `{"message":"oci runtime"}`) },
		"DELETE /containers/x2":     noContent,
	}))
	rep := &recordingReporter{}
	params := map[string]any{"name": "fixed"}
	_, err := Containers(ipc.NewClient(d.SocketPath()), WithReporter(rep)).Exec(context.Background(), params, map[string]any{"Image": "alpine"}, nil)

	var opErr *response.OperationError
	if !errors.As(err, &opErr) || opErr.Operation != "start" {
		t.Fatalf("Exec() error = %v, want start failure", err)
	}
	if got := strings.Join(rep.operations(), ","); got != "create,start,delete" {
		t.Fatalf("operations = %s", got)
	}
	if len(params) != 1 {
		t.Fatalf("caller params mutated: %v", params)
	}
}

func TestFindAndDestroy(t *testing.T) {
	d := ipctest.Start(t, ipctest.Route(map[string]func(ex *ipctest.Exchange) []byte{
		"GET /containers/json":     func(ex *ipctest.Exchange) []byte { return jsonReply(200, `[{"Id":"d1"}]`) },
		"POST /containers/d1/kill": noContent,
		"POST /containers/d1/wait": func(ex *ipctest.Exchange) []byte { return jsonReply(200, `{"StatusCode":137}`) },
		"DELETE /containers/d1":    noContent,
	}))
	rep := &recordingReporter{}
	found, err := Containers(ipc.NewClient(d.SocketPath()), WithReporter(rep)).FindAndDestroy(context.Background(), "web", map[string]any{"signal": "SIGKILL"})
	if err != nil || !found {
		t.Fatalf("FindAndDestroy() = %v, %v", found, err)
	}
	if got := strings.Join(rep.operations(), ","); got != "index,kill,wait,delete" {
		t.Fatalf("operations = %s", got)
	}
	if got := d.Exchanges()[1].Query.Get("signal"); got != "SIGKILL" {
		t.Fatalf("signal = %q", got)
	}
}

func TestFindAndDestroyMissing(t *testing.T) {
	d := ipctest.Start(t, func(ex *ipctest.Exchange) []byte { return jsonReply(200, `[]`) })
	found, err := Containers(ipc.NewClient(d.SocketPath())).FindAndDestroy(context.Background(), "ghost", nil)
	if err != nil || found {
		t.Fatalf("FindAndDestroy() = %v, %v; want false, nil", found, err)
	}
	if n := len(d.Exchanges()); n != 1 {
		t.Fatalf("exchanges = %d, want 1", n)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	_, err := Containers(ipc.NewClient(t.TempDir()+"/none.sock")).Index(context.Background(), nil)
	var connErr *ipc.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Index() error = %v, want *ipc.ConnectionError", err)
	}
	if !strings.HasPrefix(err.Error(), "index: ") {
		t.Fatalf("error = %q, want operation prefix", err)
	}
}
