//go:build linux

package ipc

import (
	"net"

	"golang.org/x/sys/unix"
)

func peerCredentials(conn net.Conn) (peerCred, error) {
	raw, err := rawConn(conn)
	if err != nil {
		return peerCred{}, err
	}

	var cred *unix.Ucred
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		cred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return peerCred{}, err
	}
	if sockErr != nil {
		return peerCred{}, sockErr
	}
	return peerCred{UID: int(cred.Uid), PID: int(cred.Pid)}, nil
}
