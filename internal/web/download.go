package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/protocol/rawhttp"
	"github.com/lansend/lansend/internal/share"
)

// downloadPausePoll matches the pause polling cadence of the fast path.
const downloadPausePoll = 200 * time.Millisecond

// handleDownload streams a file to the client with Range support. Downloads
// on this port share the transfer registry with the fast path, so they show
// up in the transfer list and honor pause and cancel the same way.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	queryPath := r.URL.Query().Get("path")

	resolved, info, err := s.roots.Resolve(name, queryPath)
	switch {
	case errors.Is(err, share.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied")
		return
	case errors.Is(err, share.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	f, err := os.Open(resolved)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	br := rawhttp.NegotiateRange(info.Size(), r.Header.Get("Range"))

	h := w.Header()
	h.Set("Content-Type", downloadContentType(resolved))
	h.Set("Content-Length", strconv.FormatInt(br.Length, 10))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(resolved)))
	h.Set("Accept-Ranges", "bytes")
	status := http.StatusOK
	if br.Partial {
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, info.Size()))
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	origin, _, _ := net.SplitHostPort(r.RemoteAddr)
	id := s.registry.Start(filepath.Base(resolved), br.Length, origin)

	var (
		sent   int64
		buf    = make([]byte, s.config.UploadChunkSize)
		offset = br.Start
	)
	for sent < br.Length {
		if s.registry.IsDone(id) {
			return
		}
		if s.registry.IsPaused(id) {
			time.Sleep(downloadPausePoll)
			continue
		}

		n := int64(len(buf))
		if remaining := br.Length - sent; remaining < n {
			n = remaining
		}
		read, err := f.ReadAt(buf[:n], offset)
		if read > 0 {
			if _, werr := w.Write(buf[:read]); werr != nil {
				// Client went away; nothing to tell it.
				s.registry.Cancel(id)
				return
			}
			sent += int64(read)
			offset += int64(read)
			s.registry.Update(id, sent)
		}
		if err != nil {
			if err != io.EOF {
				logger.Debug("Download read error for %s: %v", resolved, err)
				s.registry.Cancel(id)
			}
			break
		}
	}

	s.registry.Complete(id)
}

func downloadContentType(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".apk") {
		return "application/vnd.android.package-archive"
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
