package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
)

var (
	listSpec = flagSpec{
		bools: map[string]string{"-a": "all", "--all": "all", "--json": "json"},
	}
	createSpec = flagSpec{
		values: map[string]string{"--name": "name", "-e": "env", "--env": "env", "--fields": "fields"},
	}
	signalSpec = flagSpec{
		values: map[string]string{"-s": "signal", "--signal": "signal"},
	}
	inspectSpec = flagSpec{
		bools: map[string]string{"--image": "image"},
	}
	removeSpec = flagSpec{
		bools: map[string]string{"-f": "force", "--force": "force"},
	}
	logsSpec = flagSpec{
		bools: map[string]string{"-t": "timestamps", "--timestamps": "timestamps"},
	}
	buildSpec = flagSpec{
		values: map[string]string{"-t": "tag", "--tag": "tag"},
	}
	noFlags = flagSpec{}
)

// containerExitError is an exec whose container exited non-zero.
type containerExitError struct {
	name string
	code int
}

func (e *containerExitError) Error() string {
	return fmt.Sprintf("container %s exited with status %d", e.name, e.code)
}

func runPS(ctx context.Context, a *app, args []string) error {
	parsed, err := parseCommandArgs(args, listSpec)
	if err != nil {
		return usagef(err.Error())
	}
	if len(parsed.positional) > 0 {
		return usagef("usage: dockrest ps [--all] [--json]")
	}
	var params map[string]any
	if parsed.has("all") {
		params = map[string]any{"all": true}
	}
	list, err := a.containers.Index(ctx, params)
	if err != nil {
		return err
	}
	return writeIDs(a.stdout, outputModeOf(parsed), list)
}

func runImages(ctx context.Context, a *app, args []string) error {
	parsed, err := parseCommandArgs(args, flagSpec{bools: map[string]string{"--json": "json"}})
	if err != nil {
		return usagef(err.Error())
	}
	if len(parsed.positional) > 0 {
		return usagef("usage: dockrest images [--json]")
	}
	list, err := a.images.Index(ctx, nil)
	if err != nil {
		return err
	}
	return writeIDs(a.stdout, outputModeOf(parsed), list)
}

func runInspect(ctx context.Context, a *app, args []string) error {
	parsed, err := parseCommandArgs(args, inspectSpec)
	if err != nil {
		return usagef(err.Error())
	}
	if len(parsed.positional) != 1 {
		return usagef("usage: dockrest inspect [--image] ID")
	}
	coll := a.containers
	if parsed.has("image") {
		coll = a.images
	}
	doc, err := coll.Resource(parsed.positional[0]).Show(ctx)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, doc)
}

// creationRequest turns create-style arguments into query params and the
// JSON creation body.
func creationRequest(args []string, usage string) (map[string]any, map[string]any, error) {
	parsed, err := parseCommandArgs(args, createSpec)
	if err != nil {
		return nil, nil, usagef(err.Error())
	}
	if len(parsed.positional) == 0 {
		return nil, nil, usagef(usage)
	}

	fields := map[string]any{}
	if raw, ok := parsed.value("fields"); ok {
		extra, err := parseJSONObject(raw)
		if err != nil {
			return nil, nil, usagef(err.Error())
		}
		maps.Copy(fields, extra)
	}
	fields["Image"] = parsed.positional[0]
	if cmd := parsed.positional[1:]; len(cmd) > 0 {
		fields["Cmd"] = cmd
	}
	if envs := parsed.values["env"]; len(envs) > 0 {
		env, err := parseEnvPairs(envs)
		if err != nil {
			return nil, nil, usagef(err.Error())
		}
		fields["Env"] = env
	}

	params := map[string]any{}
	if name, ok := parsed.value("name"); ok {
		params["name"] = name
	}
	return params, fields, nil
}

func runCreate(ctx context.Context, a *app, args []string) error {
	params, fields, err := creationRequest(args, "usage: dockrest create [--name NAME] [--env K=V] IMAGE [CMD...]")
	if err != nil {
		return err
	}
	r, err := a.containers.Create(ctx, params, fields)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, r.ID)
	return nil
}

func runRun(ctx context.Context, a *app, args []string) error {
	params, fields, err := creationRequest(args, "usage: dockrest run [--name NAME] [--env K=V] IMAGE [CMD...]")
	if err != nil {
		return err
	}
	r, err := a.containers.Run(ctx, params, fields)
	if r != nil {
		fmt.Fprintln(a.stdout, r.ID)
	}
	return err
}

func runExec(ctx context.Context, a *app, args []string) error {
	params, fields, err := creationRequest(args, "usage: dockrest exec [--name NAME] [--env K=V] IMAGE [CMD...]")
	if err != nil {
		return err
	}
	fields["AttachStdout"] = true
	fields["AttachStderr"] = true

	res, err := a.containers.Exec(ctx, params, fields, map[string]any{"stdout": true, "stderr": true})
	if err != nil {
		return err
	}
	a.log.Debug().Str("container", res.Name).Int("exit_code", res.ExitCode).Msg("exec finished")
	if res.ExitCode != 0 {
		return &containerExitError{name: res.Name, code: res.ExitCode}
	}
	return nil
}

// singleID parses a command that takes exactly one ID.
func singleID(args []string, spec flagSpec, usage string) (commandArgs, string, error) {
	parsed, err := parseCommandArgs(args, spec)
	if err != nil {
		return commandArgs{}, "", usagef(err.Error())
	}
	if len(parsed.positional) != 1 || parsed.positional[0] == "" {
		return commandArgs{}, "", usagef(usage)
	}
	return parsed, parsed.positional[0], nil
}

func runStart(ctx context.Context, a *app, args []string) error {
	_, id, err := singleID(args, noFlags, "usage: dockrest start ID")
	if err != nil {
		return err
	}
	return a.containers.Resource(id).Start(ctx)
}

func signalParams(parsed commandArgs) map[string]any {
	if sig, ok := parsed.value("signal"); ok {
		return map[string]any{"signal": sig}
	}
	return nil
}

func runKill(ctx context.Context, a *app, args []string) error {
	parsed, id, err := singleID(args, signalSpec, "usage: dockrest kill [--signal SIG] ID")
	if err != nil {
		return err
	}
	return a.containers.Resource(id).Kill(ctx, signalParams(parsed))
}

func runWait(ctx context.Context, a *app, args []string) error {
	_, id, err := singleID(args, noFlags, "usage: dockrest wait ID")
	if err != nil {
		return err
	}
	code, err := a.containers.Resource(id).Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, strconv.Itoa(code))
	return nil
}

func runRemove(ctx context.Context, a *app, args []string) error {
	parsed, id, err := singleID(args, removeSpec, "usage: dockrest rm [--force] ID")
	if err != nil {
		return err
	}
	var params map[string]any
	if parsed.has("force") {
		params = map[string]any{"force": true}
	}
	return a.containers.Resource(id).Delete(ctx, params)
}

func runLogs(ctx context.Context, a *app, args []string) error {
	parsed, id, err := singleID(args, logsSpec, "usage: dockrest logs [--timestamps] ID")
	if err != nil {
		return err
	}
	params := map[string]any{"stdout": true, "stderr": true}
	if parsed.has("timestamps") {
		params["timestamps"] = true
	}
	_, err = a.containers.Resource(id).Logs(ctx, params)
	return err
}

func runDestroy(ctx context.Context, a *app, args []string) error {
	parsed, name, err := singleID(args, signalSpec, "usage: dockrest destroy [--signal SIG] NAME")
	if err != nil {
		return err
	}
	found, err := a.containers.FindAndDestroy(ctx, name, signalParams(parsed))
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(a.stderr, "dockrest: no container named %s\n", name)
	}
	return nil
}

func runBuild(ctx context.Context, a *app, args []string) error {
	parsed, err := parseCommandArgs(args, buildSpec)
	if err != nil {
		return usagef(err.Error())
	}
	if len(parsed.positional) > 1 {
		return usagef("usage: dockrest build [--tag TAG] [CONTEXT.tar|-]")
	}

	var buildContext []byte
	if len(parsed.positional) == 0 || parsed.positional[0] == "-" {
		buildContext, err = io.ReadAll(a.stdin)
	} else {
		buildContext, err = os.ReadFile(parsed.positional[0])
	}
	if err != nil {
		return fmt.Errorf("reading build context: %w", err)
	}

	var params map[string]any
	if tag, ok := parsed.value("tag"); ok {
		params = map[string]any{"t": tag}
	}
	id, err := a.images.Build(ctx, params, buildContext)
	if id != "" {
		fmt.Fprintln(a.stdout, id)
	}
	return err
}
