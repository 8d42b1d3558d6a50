//go:build darwin

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

	out := peerCred{PID: -1}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		cred, err := unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
		if err != nil {
			sockErr = err
			return
		}
		out.UID = int(cred.Uid)
		if pid, err := unix.GetsockoptInt(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERPID); err == nil {
			out.PID = pid
		}
	}); err != nil {
		return peerCred{}, err
	}
	if sockErr != nil {
		return peerCred{}, sockErr
	}
	return out, nil
}
