package rawhttp

// MaxHeaderBytes caps how much a client may send before completing the
// header block. Anything beyond this without a terminator is a malformed or
// hostile client and the connection is dropped.
const MaxHeaderBytes = 64 * 1024

// headerTerminator marks the end of the request header block.
const headerTerminator = "\r\n\r\n"

// readChunkSize is the per-read buffer used while accumulating headers.
const readChunkSize = 8 * 1024

// Status codes the fast server emits.
const (
	StatusOK               = 200
	StatusNoContent        = 204
	StatusPartialContent   = 206
	StatusForbidden        = 403
	StatusNotFound         = 404
	StatusMethodNotAllowed = 405
)

var statusText = map[int]string{
	StatusOK:               "OK",
	StatusNoContent:        "No Content",
	StatusPartialContent:   "Partial Content",
	StatusForbidden:        "Forbidden",
	StatusNotFound:         "Not Found",
	StatusMethodNotAllowed: "Method Not Allowed",
}

// StatusText returns the reason phrase for a status code.
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown"
}
