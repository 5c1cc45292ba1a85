//go:build !unix

package fastserve

import "syscall"

// tuneSocket is a no-op here; the kernel defaults stand. Buffer tuning only
// exists on unix platforms.
func (s *Server) tuneSocket(c syscall.RawConn) error {
	return nil
}
