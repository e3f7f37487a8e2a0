//go:build !linux

package socket

import "syscall"

// controlReuseAddr is a no-op on platforms where the reuse-address
// socket option is not wired up.
func controlReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
