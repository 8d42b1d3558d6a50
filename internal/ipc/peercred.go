package ipc

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

var errPeerCredUnsupported = errors.New("peer credentials not supported on this platform")

// peerCred identifies the process on the far end of a Unix socket.
// PID is -1 when the platform does not report it.
type peerCred struct {
	UID int
	PID int
}

func rawConn(conn net.Conn) (syscall.RawConn, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("connection is not unix")
	}
	return unixConn.SyscallConn()
}
