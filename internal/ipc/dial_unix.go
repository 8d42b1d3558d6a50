//go:build unix

package ipc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// diagnoseDial adds the likely cause to a failed dial: a missing socket
// file, one the user may not open, or a path that is not a socket.
func diagnoseDial(socketPath string, err error) error {
	if unix.Access(socketPath, unix.F_OK) != nil {
		return fmt.Errorf("%w (no socket at %s; is the daemon running?)", err, socketPath)
	}
	if unix.Access(socketPath, unix.R_OK|unix.W_OK) != nil {
		return fmt.Errorf("%w (permission denied on %s)", err, socketPath)
	}

	var st unix.Stat_t
	if unix.Stat(socketPath, &st) == nil && uint32(st.Mode)&unix.S_IFMT != unix.S_IFSOCK {
		return fmt.Errorf("%w (%s is not a socket)", err, socketPath)
	}
	return err
}
