//go:build !linux && !darwin

package ipc

import "net"

func peerCredentials(net.Conn) (peerCred, error) {
	return peerCred{}, errPeerCredUnsupported
}
