package rawhttp

import (
	"strconv"
	"strings"
)

// ByteRange is the negotiated byte window of a response body.
type ByteRange struct {
	Start  int64
	End    int64
	Length int64

	// Partial records whether a Range header was present at all. It drives
	// the 206 status even when the header was malformed and the full file
	// is served — long-standing client-visible behavior that resumable
	// download clients depend on.
	Partial bool
}

// NegotiateRange computes the byte range to serve from the file size and an
// optional Range header value of the form "bytes=<start>-<end>".
//
// Either bound may be omitted: a missing start defaults to 0, a missing end
// to size-1. Malformed numeric content falls back to the default for that
// bound rather than failing the request; an unparsable start abandons the
// whole header (end included), mirroring how the range has always been
// parsed here.
func NegotiateRange(size int64, header string) ByteRange {
	r := ByteRange{Start: 0, End: size - 1}
	if header == "" {
		r.Length = size
		return r
	}

	r.Partial = true

	spec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "bytes="))
	start, end, _ := strings.Cut(spec, "-")

	parsed := true
	if start != "" {
		v, err := strconv.ParseInt(start, 10, 64)
		if err != nil {
			parsed = false
		} else {
			r.Start = v
		}
	}
	if parsed && end != "" {
		if v, err := strconv.ParseInt(end, 10, 64); err == nil {
			r.End = v
		}
	}

	r.Length = r.End - r.Start + 1
	return r
}
