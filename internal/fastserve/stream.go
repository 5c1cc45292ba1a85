package fastserve

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/metrics"
	"github.com/lansend/lansend/internal/protocol/rawhttp"
	"github.com/lansend/lansend/internal/transfer"
)

// streamer copies a negotiated byte range from a file to a connection in
// bounded chunks, consulting the transfer registry between chunks so pause
// and cancel take effect at chunk granularity.
type streamer struct {
	registry  *transfer.Registry
	metrics   metrics.TransferMetrics
	chunkSize int64
	pausePoll time.Duration
}

// stream transfers br.Length bytes starting at br.Start.
//
// The primary path hands each chunk to the kernel's file-to-socket transfer,
// advancing the offset explicitly so partial sends resume correctly. Any
// sendfile error downgrades to buffered reads and writes; if the peer is
// actually gone the very next buffered write fails and the transfer aborts
// silently, which is the required behavior for transport errors either way.
//
// Pause is a client-visible stall: the loop sleeps and re-checks with no
// upper bound on how long a transfer may stay paused. Cancel flips the
// record to done, which short-circuits the loop at the next checkpoint.
func (s *streamer) stream(conn net.Conn, file *os.File, id string, br rawhttp.ByteRange) {
	start := time.Now()
	offset := br.Start
	var sent int64
	var buf []byte
	zeroCopy := sendfileSupported

	for sent < br.Length {
		if s.registry.IsDone(id) {
			logger.Debug("Transfer %s canceled after %d/%d bytes", id, sent, br.Length)
			s.metrics.RecordTransferAborted()
			return
		}
		if s.registry.IsPaused(id) {
			time.Sleep(s.pausePoll)
			continue
		}

		chunk := br.Length - sent
		if chunk > s.chunkSize {
			chunk = s.chunkSize
		}

		var n int64
		if zeroCopy {
			var err error
			n, err = sendfileChunk(conn, file, &offset, chunk)
			if n > 0 {
				sent += n
				s.registry.Update(id, sent)
				s.metrics.RecordBytesSent("sendfile", n)
			}
			if err != nil {
				logger.Debug("Zero-copy transfer unavailable for %s, using buffered path: %v", id, err)
				zeroCopy = false
				continue
			}
		} else {
			if buf == nil {
				buf = make([]byte, s.chunkSize)
			}

			read, rerr := file.ReadAt(buf[:chunk], offset)
			if read > 0 {
				if _, werr := conn.Write(buf[:read]); werr != nil {
					// Peer reset or broken pipe. Headers are
					// already committed; abort silently.
					logger.Debug("Transfer %s aborted after %d bytes: %v", id, sent, werr)
					s.registry.Cancel(id)
					s.metrics.RecordTransferAborted()
					return
				}
				n = int64(read)
				offset += n
				sent += n
				s.registry.Update(id, sent)
				s.metrics.RecordBytesSent("buffered", n)
			}
			if rerr != nil && rerr != io.EOF {
				logger.Debug("Transfer %s read failed at offset %d: %v", id, offset, rerr)
				s.registry.Cancel(id)
				s.metrics.RecordTransferAborted()
				return
			}
		}

		if n == 0 {
			// Source exhausted before the negotiated length; the
			// range extended past end of file.
			break
		}
	}

	s.registry.Complete(id)
	s.metrics.RecordTransferComplete(time.Since(start))
	logger.Debug("Transfer %s complete: %d bytes in %v", id, sent, time.Since(start))
}
