package cli

import (
	"errors"

	"github.com/lydakis/dockrest/internal/ipc"
	"github.com/lydakis/dockrest/internal/resource"
	"github.com/lydakis/dockrest/internal/response"
)

// usageError is a malformed command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(msg string) error { return &usageError{msg: msg} }

// exitCodeFor maps a command error to a process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ipc.ExitOK
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return ipc.ExitUsageErr
	}
	if isDaemonRefusal(err) {
		return ipc.ExitOpFailed
	}
	return ipc.ExitInternal
}

// isDaemonRefusal reports errors where the daemon answered properly but said
// no: a non-2xx status, a plain-text stream error, or a failed build.
func isDaemonRefusal(err error) bool {
	var opErr *response.OperationError
	var streamErr *response.StreamError
	var buildErr *resource.BuildError
	var exitErr *containerExitError
	return errors.As(err, &opErr) || errors.As(err, &streamErr) || errors.As(err, &buildErr) || errors.As(err, &exitErr)
}

// alreadyReported reports errors whose details the Reporter printed.
func alreadyReported(err error) bool {
	var opErr *response.OperationError
	var streamErr *response.StreamError
	return errors.As(err, &opErr) || errors.As(err, &streamErr)
}
