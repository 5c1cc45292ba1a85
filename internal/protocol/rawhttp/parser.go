package rawhttp

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrHeaderTooLarge means the peer sent MaxHeaderBytes without ever
	// completing the header block.
	ErrHeaderTooLarge = errors.New("request headers exceed size limit")

	// ErrMalformedRequest means the first line did not contain a method and
	// a target.
	ErrMalformedRequest = errors.New("malformed request line")
)

// ReadRequest accumulates bytes from r until a full header block (terminated
// by CRLF CRLF) is present, then parses it.
//
// Returns io.EOF if the peer closes before a terminator appears; callers
// treat that as a silent abort. Returns ErrHeaderTooLarge once more than
// MaxHeaderBytes arrive without a terminator, which bounds memory against
// malformed clients. Body bytes, if any arrive with the headers, are
// discarded: the fast server only answers bodyless methods.
func ReadRequest(r io.Reader) (*Request, error) {
	var raw []byte
	buf := make([]byte, readChunkSize)
	terminator := []byte(headerTerminator)

	for !bytes.Contains(raw, terminator) {
		n, err := r.Read(buf)
		if n > 0 {
			raw = append(raw, buf[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		if len(raw) > MaxHeaderBytes {
			return nil, ErrHeaderTooLarge
		}
	}

	block := string(raw)
	block = block[:strings.Index(block, headerTerminator)]
	lines := strings.Split(block, "\r\n")

	parts := strings.Fields(lines[0])
	if len(parts) < 2 {
		return nil, ErrMalformedRequest
	}

	req := &Request{
		Method:  strings.ToUpper(parts[0]),
		headers: make(map[string]string, len(lines)-1),
	}
	req.Path, req.PathOverride = splitTarget(parts[1])

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	return req, nil
}

// splitTarget separates the request target into its decoded path component
// and the decoded "path" query parameter.
//
// Decoding failures never fail the request: an undecodable path is passed
// through verbatim, and the resolver downstream rejects it with a 403 or
// 404. A crash or parse error here would let one malformed client take down
// its connection handler with something other than the minimal error
// response the protocol promises.
func splitTarget(target string) (path, override string) {
	rawPath, rawQuery, _ := strings.Cut(target, "?")

	path = rawPath
	if decoded, err := url.PathUnescape(rawPath); err == nil {
		path = decoded
	}

	if rawQuery != "" {
		if values, err := url.ParseQuery(rawQuery); err == nil {
			override = values.Get("path")
		}
	}

	return path, override
}
