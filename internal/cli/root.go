package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/lydakis/dockrest/internal/config"
	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/logging"
	"github.com/lydakis/dockrest/internal/resource"
	"github.com/lydakis/dockrest/internal/ui"
	"github.com/rs/zerolog"
)

// app is the per-invocation wiring shared by every command.
type app struct {
	cfg        *config.Config
	containers *resource.Collection
	images     *resource.Collection
	stdout     io.Writer
	stderr     io.Writer
	stdin      io.Reader
	log        zerolog.Logger
}

type commandFunc func(ctx context.Context, a *app, args []string) error

var commands = map[string]commandFunc{
	"ps":      runPS,
	"images":  runImages,
	"inspect": runInspect,
	"create":  runCreate,
	"run":     runRun,
	"exec":    runExec,
	"start":   runStart,
	"kill":    runKill,
	"wait":    runWait,
	"rm":      runRemove,
	"logs":    runLogs,
	"destroy": runDestroy,
	"build":   runBuild,
}

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	if handled, code := handleRootFlags(args); handled {
		return code
	}
	if len(args) == 0 {
		printRootHelp(rootStderr)
		return ipc.ExitUsageErr
	}

	if args[0] == "config" {
		return runConfigCommand(args[1:], rootStdout, rootStderr)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(rootStderr, "dockrest: unknown command: %s\n", args[0])
		fmt.Fprintln(rootStderr, "Run 'dockrest --help' for usage.")
		return ipc.ExitUsageErr
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(rootStderr, "dockrest: %v\n", err)
		return ipc.ExitInternal
	}
	if verr := config.Validate(cfg); verr != nil {
		fmt.Fprintf(rootStderr, "dockrest: invalid config: %v\n", verr)
		return ipc.ExitUsageErr
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(rootStderr, "dockrest: %v\n", err)
		return ipc.ExitUsageErr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = cmd(ctx, a, args[1:])
	if err != nil && !alreadyReported(err) {
		fmt.Fprintf(rootStderr, "dockrest: %v\n", err)
	}
	return exitCodeFor(err)
}

func newApp(cfg *config.Config) (*app, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	mode, err := ui.ParseColorMode(cfg.Color)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Resolve(cfg.LogLevel)
	logCfg.Out = rootStderr
	log := logging.New(logCfg)

	client := ipc.NewClient(cfg.Socket,
		ipc.WithTimeout(timeout),
		ipc.WithHeaders(cfg.Headers),
		ipc.WithLogger(log.With().Str("component", "ipc").Logger()),
	)
	opts := []resource.Option{
		resource.WithAPIVersion(cfg.APIVersion),
		resource.WithOutput(rootStdout, rootStderr),
		resource.WithReporter(ui.NewReporter(rootStdout, rootStderr, mode)),
		resource.WithLogger(log),
	}
	return &app{
		cfg:        cfg,
		containers: resource.Containers(client, opts...),
		images:     resource.Images(client, opts...),
		stdout:     rootStdout,
		stderr:     rootStderr,
		stdin:      rootStdin,
		log:        log,
	}, nil
}
