package fastserve

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/protocol/rawhttp"
	"github.com/lansend/lansend/internal/share"
)

type conn struct {
	server *Server
	rwc    net.Conn
}

// serve handles exactly one request: the fast protocol is one connection per
// transfer, closed when the response ends.
//
// Every failure is contained here. Malformed input gets a 4xx or a silent
// drop, transport errors are swallowed (the response is already partially
// sent and cannot be corrected), and a panic is recovered so one misbehaving
// connection cannot take down the acceptor.
func (c *conn) serve() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in fast transfer handler from %s: %v",
				c.rwc.RemoteAddr(), r)
		}
		_ = c.rwc.Close()
	}()

	if tcp, ok := c.rwc.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	peer := c.rwc.RemoteAddr().String()
	logger.Debug("Fast transfer connection from %s", peer)

	req, err := rawhttp.ReadRequest(c.rwc)
	if err != nil {
		// Peer gone before headers completed, or headers never
		// terminated within the size cap. Nothing to respond to.
		if err != io.EOF {
			logger.Debug("Dropping connection from %s: %v", peer, err)
		}
		return
	}

	switch req.Method {
	case "OPTIONS":
		c.write(rawhttp.PreflightResponse())
		return
	case "GET", "HEAD":
	default:
		c.write(rawhttp.ErrorResponse(rawhttp.StatusMethodNotAllowed))
		return
	}

	path, info, err := c.server.roots.Resolve(req.Path, req.PathOverride)
	if err != nil {
		// Never leak the resolved path; the status code is the entire
		// answer.
		switch {
		case errors.Is(err, share.ErrForbidden):
			c.write(rawhttp.ErrorResponse(rawhttp.StatusForbidden))
		default:
			c.write(rawhttp.ErrorResponse(rawhttp.StatusNotFound))
		}
		return
	}

	file, err := os.Open(path)
	if err != nil {
		c.write(rawhttp.ErrorResponse(rawhttp.StatusNotFound))
		return
	}
	defer file.Close()

	size := info.Size()
	br := rawhttp.NegotiateRange(size, req.Header("Range"))

	status := rawhttp.StatusOK
	if br.Partial {
		status = rawhttp.StatusPartialContent
	}

	name := filepath.Base(path)
	if !c.write(rawhttp.FileHeaders(rawhttp.FileHeader{
		Status:      status,
		ContentType: contentType(path),
		Length:      br.Length,
		Filename:    name,
		Partial:     br.Partial,
		RangeStart:  br.Start,
		RangeEnd:    br.End,
		TotalSize:   size,
	})) {
		return
	}

	if req.Method == "HEAD" {
		return
	}

	id := c.server.registry.Start(name, size, peer)
	c.server.metrics.RecordTransferStart()

	st := &streamer{
		registry:  c.server.registry,
		metrics:   c.server.metrics,
		chunkSize: c.server.config.ChunkSize,
		pausePoll: c.server.config.PausePoll,
	}
	st.stream(c.rwc, file, id, br)
}

// write sends a prebuilt response block, swallowing transport errors.
func (c *conn) write(data []byte) bool {
	if _, err := c.rwc.Write(data); err != nil {
		logger.Debug("Write to %s failed: %v", c.rwc.RemoteAddr(), err)
		return false
	}
	return true
}
