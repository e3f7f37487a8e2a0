//go:build linux

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlReuseAddr enables SO_REUSEADDR on the raw socket before bind,
// so a restarted server can take over a port still in TIME_WAIT.
func controlReuseAddr(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return serr
}
