//go:build !linux && !darwin

package fastserve

import (
	"errors"
	"net"
	"os"
)

const sendfileSupported = false

// sendfileChunk is never reached on platforms without a usable sendfile;
// the streamer starts directly on the buffered path.
func sendfileChunk(net.Conn, *os.File, *int64, int64) (int64, error) {
	return 0, errors.New("sendfile not supported on this platform")
}
