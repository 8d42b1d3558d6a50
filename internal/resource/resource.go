package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/response"
)

// Resource is one container or image, addressed by ID or name.
type Resource struct {
	ID   string
	coll *Collection
}

func (r *Resource) path(verb ...string) string {
	return r.coll.path(append([]string{r.coll.root, r.ID}, verb...)...)
}

// Start starts a created container.
func (r *Resource) Start(ctx context.Context) error {
	_, err := r.coll.do(ctx, OpStart, &ipc.Request{Method: ipc.MethodPost, Path: r.path("start")})
	return err
}

// Show returns the decoded inspect document.
func (r *Resource) Show(ctx context.Context) (any, error) {
	resp, err := r.coll.do(ctx, OpShow, &ipc.Request{Method: ipc.MethodGet, Path: r.path("json")})
	if err != nil {
		return nil, err
	}
	body, err := response.Decode(OpShow, resp, response.Sinks{})
	if err != nil {
		return nil, err
	}
	return body.Value, nil
}

// Kill sends a signal; params may carry "signal".
func (r *Resource) Kill(ctx context.Context, params map[string]any) error {
	_, err := r.coll.do(ctx, OpKill, &ipc.Request{Method: ipc.MethodPost, Path: r.path("kill"), Query: params})
	return err
}

// Wait blocks until the container stops and returns its exit status.
func (r *Resource) Wait(ctx context.Context) (int, error) {
	resp, err := r.coll.do(ctx, OpWait, &ipc.Request{Method: ipc.MethodPost, Path: r.path("wait")})
	if err != nil {
		return 0, err
	}
	code, err := jsonparser.GetInt(resp.Body, "StatusCode")
	if err != nil {
		return 0, &ipc.DecodeError{Shape: "json", Text: string(resp.Body), Err: fmt.Errorf("reading StatusCode: %w", err)}
	}
	return int(code), nil
}

// Delete removes the resource; params may carry "force" or "v".
func (r *Resource) Delete(ctx context.Context, params map[string]any) error {
	_, err := r.coll.do(ctx, OpDelete, &ipc.Request{Method: ipc.MethodDelete, Path: r.path(), Query: params})
	return err
}

// Logs fetches container output. Frames are copied to the collection's
// stdout and stderr as they are demultiplexed; the combined payload is
// returned.
func (r *Resource) Logs(ctx context.Context, params map[string]any) ([]byte, error) {
	resp, err := r.coll.do(ctx, OpLogs, &ipc.Request{Method: ipc.MethodGet, Path: r.path("logs"), Query: params})
	if err != nil {
		return nil, err
	}
	body, err := response.Decode(OpLogs, resp, response.Sinks{Stdout: r.coll.stdout, Stderr: r.coll.stderr})
	if err != nil {
		return nil, err
	}
	return body.Stream, nil
}

// Destroy kills, waits for, and deletes the resource. params go to kill.
// Kill and wait failures reported by the daemon (a container that is
// already stopped, say) do not stop the delete; transport failures do.
func (r *Resource) Destroy(ctx context.Context, params map[string]any) error {
	if err := r.Kill(ctx, params); err != nil && !isOperationFailure(err) {
		return err
	}
	if _, err := r.Wait(ctx); err != nil && !isOperationFailure(err) {
		return err
	}
	return r.Delete(ctx, nil)
}

func isOperationFailure(err error) bool {
	var opErr *response.OperationError
	return errors.As(err, &opErr)
}
