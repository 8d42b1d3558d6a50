package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"
	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/response"
	"github.com/rs/zerolog"
)

// Reporter is told about every response a collection receives.
type Reporter interface {
	Status(resp *ipc.Response)
	Outcome(out response.Outcome)
}

type nopReporter struct{}

func (nopReporter) Status(*ipc.Response)      {}
func (nopReporter) Outcome(response.Outcome) {}

// BuildError is a build whose progress stream reported an error line.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string {
	return "build failed: " + strings.TrimSpace(e.Message)
}

// Collection is a daemon resource root such as /containers or /images.
type Collection struct {
	root       string
	sender     ipc.Sender
	apiVersion string
	stdout     io.Writer
	stderr     io.Writer
	reporter   Reporter
	log        zerolog.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithAPIVersion prefixes every path with /vX.Y. A missing "v" is added.
func WithAPIVersion(v string) Option {
	return func(c *Collection) {
		v = strings.Trim(strings.TrimSpace(v), "/")
		if v != "" && !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		c.apiVersion = v
	}
}

// WithOutput sets where build progress and container logs are written.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Collection) {
		if stdout != nil {
			c.stdout = stdout
		}
		if stderr != nil {
			c.stderr = stderr
		}
	}
}

// WithReporter sets the status and outcome reporter.
func WithReporter(r Reporter) Option {
	return func(c *Collection) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Collection) { c.log = log }
}

// NewCollection binds root to sender.
func NewCollection(root string, sender ipc.Sender, opts ...Option) *Collection {
	c := &Collection{
		root:     "/" + strings.Trim(root, "/"),
		sender:   sender,
		stdout:   io.Discard,
		stderr:   io.Discard,
		reporter: nopReporter{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Containers returns the /containers collection.
func Containers(sender ipc.Sender, opts ...Option) *Collection {
	return NewCollection("/containers", sender, opts...)
}

// Images returns the /images collection.
func Images(sender ipc.Sender, opts ...Option) *Collection {
	return NewCollection("/images", sender, opts...)
}

// Resource returns a handle for id. No request is made.
func (c *Collection) Resource(id string) *Resource {
	return &Resource{ID: id, coll: c}
}

func (c *Collection) path(parts ...string) string {
	segs := make([]string, 0, len(parts)+2)
	segs = append(segs, "/")
	if c.apiVersion != "" {
		segs = append(segs, c.apiVersion)
	}
	return path.Join(append(segs, parts...)...)
}

// do sends req, reports it, and classifies it against op. A failed outcome
// comes back as a *response.OperationError along with the response.
func (c *Collection) do(ctx context.Context, op response.Operation, req *ipc.Request) (*ipc.Response, error) {
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	c.reporter.Status(resp)
	out := response.Classify(op, resp)
	c.reporter.Outcome(out)
	if err := out.Err(); err != nil {
		return resp, err
	}
	return resp, nil
}

// Index lists the collection. A failed call returns an empty slice and the
// operation error.
func (c *Collection) Index(ctx context.Context, params map[string]any) ([]*Resource, error) {
	resp, err := c.do(ctx, OpIndex, &ipc.Request{
		Method: ipc.MethodGet,
		Path:   c.path(c.root, "json"),
		Query:  params,
	})
	if err != nil {
		return []*Resource{}, err
	}

	out := []*Resource{}
	var itemErr error
	_, err = jsonparser.ArrayEach(resp.Body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if itemErr != nil {
			return
		}
		id, err := jsonparser.GetString(value, "Id")
		if err != nil {
			itemErr = &ipc.DecodeError{Shape: "json", Segment: len(out), Text: string(value), Err: fmt.Errorf("reading Id: %w", err)}
			return
		}
		out = append(out, c.Resource(id))
	})
	if err != nil {
		return []*Resource{}, &ipc.DecodeError{Shape: "json", Text: string(resp.Body), Err: err}
	}
	if itemErr != nil {
		return []*Resource{}, itemErr
	}
	return out, nil
}

// Find returns the resource whose name is exactly name, or nil.
func (c *Collection) Find(ctx context.Context, name string) (*Resource, error) {
	found, err := c.Index(ctx, map[string]any{
		"all":     true,
		"filters": map[string][]string{"name": {"/" + name + "$"}},
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// Create posts fields as the JSON creation body.
func (c *Collection) Create(ctx context.Context, params map[string]any, fields any) (*Resource, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("create: encoding fields: %w", err)
	}
	c.log.Debug().RawJSON("fields", body).Msg("create")

	resp, err := c.do(ctx, OpCreate, &ipc.Request{
		Method:  ipc.MethodPost,
		Path:    c.path(c.root, "create"),
		Query:   params,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	var created struct {
		ID       string   `json:"Id"`
		Warnings []string `json:"Warnings"`
	}
	if err := response.DecodeJSONInto(resp.Body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, &ipc.DecodeError{Shape: "json", Text: string(resp.Body), Err: errors.New("missing Id")}
	}
	for _, w := range created.Warnings {
		c.log.Warn().Str("id", created.ID).Msg(w)
	}
	return c.Resource(created.ID), nil
}

// Build posts a tar build context and relays the progress stream: "stream"
// and "status" lines to stdout, "error" lines to stderr. It returns the
// image ID when the daemon reports one.
func (c *Collection) Build(ctx context.Context, params map[string]any, buildContext []byte) (string, error) {
	req := &ipc.Request{
		Method: ipc.MethodPost,
		Path:   c.path("build"),
		Query:  params,
		Body:   buildContext,
	}
	if len(buildContext) > 0 {
		req.Headers = map[string]string{"Content-Type": "application/x-tar"}
	}
	resp, err := c.do(ctx, OpBuild, req)
	if err != nil {
		return "", err
	}
	body, err := response.Decode(OpBuild, resp, response.Sinks{})
	if err != nil {
		return "", err
	}

	var imageID string
	var failures []string
	for _, line := range body.Sequence {
		if s, err := jsonparser.GetString(line, "stream"); err == nil {
			fmt.Fprint(c.stdout, s)
			continue
		}
		if s, err := jsonparser.GetString(line, "status"); err == nil {
			fmt.Fprintln(c.stdout, s)
			continue
		}
		if id, err := jsonparser.GetString(line, "aux", "ID"); err == nil {
			imageID = id
			continue
		}
		if msg, err := jsonparser.GetString(line, "error"); err == nil {
			fmt.Fprintln(c.stderr, msg)
			if detail, err := jsonparser.GetString(line, "errorDetail", "message"); err == nil && detail != msg {
				fmt.Fprintln(c.stderr, detail)
			}
			failures = append(failures, msg)
		}
	}
	if len(failures) > 0 {
		return imageID, &BuildError{Message: strings.Join(failures, "; ")}
	}
	return imageID, nil
}

// Run creates a container and starts it.
func (c *Collection) Run(ctx context.Context, params map[string]any, fields any) (*Resource, error) {
	r, err := c.Create(ctx, params, fields)
	if err != nil {
		return nil, err
	}
	return r, r.Start(ctx)
}

// ExecResult is the outcome of a run-to-completion container.
type ExecResult struct {
	Name     string
	ExitCode int
	Logs     []byte
}

// Exec creates a throwaway container, runs it to completion, collects its
// logs, and deletes it. Without a "name" param the container is named
// dockrest-<uuid>. The container is deleted even when a step fails.
func (c *Collection) Exec(ctx context.Context, params map[string]any, fields any, logsParams map[string]any) (ExecResult, error) {
	params = maps.Clone(params)
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["name"]; !ok {
		params["name"] = "dockrest-" + uuid.NewString()
	}
	res := ExecResult{Name: fmt.Sprint(params["name"])}

	r, err := c.Create(ctx, params, fields)
	if err != nil {
		return res, err
	}

	runErr := func() error {
		if err := r.Start(ctx); err != nil {
			return err
		}
		code, err := r.Wait(ctx)
		if err != nil {
			return err
		}
		res.ExitCode = code
		res.Logs, err = r.Logs(ctx, logsParams)
		return err
	}()
	delErr := r.Delete(context.WithoutCancel(ctx), nil)
	return res, errors.Join(runErr, delErr)
}

// FindAndDestroy destroys the resource named name. It reports whether one
// was found.
func (c *Collection) FindAndDestroy(ctx context.Context, name string, params map[string]any) (bool, error) {
	r, err := c.Find(ctx, name)
	if err != nil || r == nil {
		return false, err
	}
	return true, r.Destroy(ctx, params)
}
