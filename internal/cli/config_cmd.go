package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/lydakis/dockrest/internal/config"
	"github.com/lydakis/dockrest/internal/ipc"
)

var configInitSpec = flagSpec{
	bools: map[string]string{"-f": "force", "--force": "force"},
}

func runConfigCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: dockrest config <init|path|check>")
		return ipc.ExitUsageErr
	}

	switch args[0] {
	case "path":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "usage: dockrest config path")
			return ipc.ExitUsageErr
		}
		fmt.Fprintln(stdout, config.ExampleConfigPath())
		return ipc.ExitOK
	case "init":
		parsed, err := parseCommandArgs(args[1:], configInitSpec)
		if err != nil || len(parsed.positional) > 0 {
			fmt.Fprintln(stderr, "usage: dockrest config init [--force]")
			return ipc.ExitUsageErr
		}
		return initConfig(config.ExampleConfigPath(), parsed.has("force"), stdout, stderr)
	case "check":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "usage: dockrest config check")
			return ipc.ExitUsageErr
		}
		return checkConfig(config.ExampleConfigPath(), stdout, stderr)
	default:
		fmt.Fprintf(stderr, "dockrest: unknown config command: %s\n", args[0])
		return ipc.ExitUsageErr
	}
}

func initConfig(path string, force bool, stdout, stderr io.Writer) int {
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(stderr, "dockrest: %s already exists (use --force to overwrite)\n", path)
		return ipc.ExitUsageErr
	}
	if err := config.Save(config.Default()); err != nil {
		fmt.Fprintf(stderr, "dockrest: %v\n", err)
		return ipc.ExitInternal
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return ipc.ExitOK
}

// checkConfig validates the file as written. DOCKER_HOST is not applied, so
// the result describes the file rather than the current shell.
func checkConfig(path string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadForEditFrom(path)
	if err != nil {
		fmt.Fprintf(stderr, "dockrest: %v\n", err)
		return ipc.ExitUsageErr
	}
	if err := config.ValidateForCurrentEnv(cfg); err != nil {
		fmt.Fprintf(stderr, "dockrest: invalid config %s:\n%v\n", path, err)
		return ipc.ExitUsageErr
	}
	fmt.Fprintf(stdout, "%s: ok\n", path)
	return ipc.ExitOK
}
