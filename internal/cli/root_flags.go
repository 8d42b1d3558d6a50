package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

var (
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	rootStdin    io.Reader = os.Stdin
	buildVersion           = "dev"
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

func handleRootFlags(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}

	if len(args) != 1 {
		return false, 0
	}

	switch args[0] {
	case "--version", "-V":
		fmt.Fprintf(rootStdout, "dockrest %s\n", buildVersion)
		return true, 0
	case "--help", "-h":
		printRootHelp(rootStdout)
		return true, 0
	default:
		return false, 0
	}
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}

func printRootHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  dockrest <command> [FLAGS] [ARGS]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Containers:")
	fmt.Fprintln(out, "  ps [--all, -a] [--json]              List containers")
	fmt.Fprintln(out, "  inspect [--image] ID                 Show a container or image document")
	fmt.Fprintln(out, "  create [FLAGS] IMAGE [CMD...]        Create a container and print its ID")
	fmt.Fprintln(out, "  run [FLAGS] IMAGE [CMD...]           Create and start a container")
	fmt.Fprintln(out, "  exec [FLAGS] IMAGE [CMD...]          Run a throwaway container to completion")
	fmt.Fprintln(out, "  start ID                             Start a container")
	fmt.Fprintln(out, "  kill [--signal, -s SIG] ID           Signal a container")
	fmt.Fprintln(out, "  wait ID                              Wait for a container and print its exit status")
	fmt.Fprintln(out, "  rm [--force, -f] ID                  Remove a container")
	fmt.Fprintln(out, "  logs [--timestamps, -t] ID           Print container output")
	fmt.Fprintln(out, "  destroy [--signal, -s SIG] NAME      Kill, wait for, and remove a named container")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Images:")
	fmt.Fprintln(out, "  images [--json]                      List images")
	fmt.Fprintln(out, "  build [--tag, -t TAG] [CONTEXT|-]    Build from a tar context (stdin when omitted)")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Config:")
	fmt.Fprintln(out, "  config init [--force]                Write a default config file")
	fmt.Fprintln(out, "  config path                          Print the config file path")
	fmt.Fprintln(out, "  config check                         Validate the config file")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Create flags:")
	fmt.Fprintln(out, "  --name NAME         Container name")
	fmt.Fprintln(out, "  --env, -e K=V       Environment entry (repeatable)")
	fmt.Fprintln(out, "  --fields JSON       Extra creation fields merged into the request body")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprintln(out, "  --help, -h       Show help")
	fmt.Fprintln(out, "  --version, -V    Show version")
}
