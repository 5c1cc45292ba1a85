package rawhttp

import (
	"fmt"
	"strings"
)

// FileHeader carries everything needed to emit the response header block for
// a file transfer.
type FileHeader struct {
	Status      int
	ContentType string
	Length      int64
	Filename    string

	// Range fields are emitted only for partial responses.
	Partial    bool
	RangeStart int64
	RangeEnd   int64
	TotalSize  int64
}

// PreflightResponse is the full 204 response to an OPTIONS request. The
// connection closes after it; nothing else is processed.
func PreflightResponse() []byte {
	return []byte("HTTP/1.1 204 No Content\r\n" +
		"Access-Control-Allow-Origin: *\r\n" +
		"Access-Control-Allow-Methods: GET, HEAD, OPTIONS\r\n" +
		"Access-Control-Allow-Headers: Range\r\n" +
		"Connection: close\r\n\r\n")
}

// ErrorResponse builds a minimal error response: status line, Content-Length
// and the CORS origin header so browser clients can read the failure, and
// the reason phrase as a plain-text body.
func ErrorResponse(code int) []byte {
	text := StatusText(code)
	return []byte(fmt.Sprintf(
		"HTTP/1.1 %d %s\r\n"+
			"Content-Length: %d\r\n"+
			"Access-Control-Allow-Origin: *\r\n"+
			"Connection: close\r\n\r\n%s",
		code, text, len(text), text))
}

// FileHeaders builds the response header block preceding file bytes.
func FileHeaders(h FileHeader) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", h.Status, StatusText(h.Status))
	fmt.Fprintf(&b, "Content-Type: %s\r\n", h.ContentType)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", h.Length)
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", sanitizeFilename(h.Filename))
	b.WriteString("Accept-Ranges: bytes\r\n")
	b.WriteString("Access-Control-Allow-Origin: *\r\n")
	b.WriteString("Access-Control-Allow-Methods: GET, HEAD, OPTIONS\r\n")
	b.WriteString("Access-Control-Expose-Headers: Content-Length, Content-Range\r\n")
	b.WriteString("Cache-Control: no-cache\r\n")
	b.WriteString("Connection: close\r\n")
	if h.Partial {
		fmt.Fprintf(&b, "Content-Range: bytes %d-%d/%d\r\n", h.RangeStart, h.RangeEnd, h.TotalSize)
	}
	b.WriteString("\r\n")

	return []byte(b.String())
}

// sanitizeFilename replaces bytes outside printable ASCII so the filename is
// safe inside a quoted Content-Disposition value.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' {
			return '?'
		}
		return r
	}, name)
}
