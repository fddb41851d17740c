package fakeadbd

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr marks the listening socket SO_REUSEADDR so that a freshly started
// daemon can bind a port whose previous owner's connections are still in
// TIME_WAIT.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
