//go:build unix

package fastserve

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// tuneSocket applies bind-time socket options: address reuse for fast
// restarts, a large send buffer to keep the Wi-Fi pipe full, and an explicit
// receive buffer. TCP_NODELAY is per-connection and set at accept time.
func (s *Server) tuneSocket(c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, s.config.SendBuffer)
		if opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, s.config.RecvBuffer)
	})
	if err != nil {
		return err
	}
	return opErr
}
