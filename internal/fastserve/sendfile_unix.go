//go:build linux || darwin

package fastserve

import (
	"errors"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

const sendfileSupported = true

// sendfileChunk transfers up to max bytes from file at *offset directly to
// the connection's socket, advancing *offset by the bytes actually written.
// File bytes never enter user space.
func sendfileChunk(conn net.Conn, file *os.File, offset *int64, max int64) (int64, error) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return 0, errors.New("connection does not expose a socket descriptor")
	}

	raw, err := tcp.SyscallConn()
	if err != nil {
		return 0, err
	}

	infd := int(file.Fd())
	var written int64
	var opErr error

	// raw.Write re-invokes the closure when the socket becomes writable
	// again after an EAGAIN.
	err = raw.Write(func(fd uintptr) bool {
		for written < max {
			// The kernel may update its own copy of the offset;
			// track it manually so the accounting is identical on
			// every platform.
			off := *offset
			n, err := unix.Sendfile(int(fd), infd, &off, int(max-written))
			if n > 0 {
				written += int64(n)
				*offset += int64(n)
			}
			if err == unix.EAGAIN {
				return false
			}
			if err != nil {
				opErr = err
				return true
			}
			if n == 0 {
				return true
			}
		}
		return true
	})
	if err != nil {
		return written, err
	}
	return written, opErr
}
