package rawhttp

import "strings"

// Request is one parsed request off the wire. It lives for a single
// connection and is discarded once the response has been sent.
type Request struct {
	// Method is the upper-cased request method.
	Method string

	// Path is the percent-decoded path component of the target. If the
	// target could not be decoded, Path carries it verbatim; the resolver
	// downstream turns that into a 403 or 404.
	Path string

	// PathOverride is the decoded value of the "path" query parameter, or
	// "" when absent. Clients use it to carry exact absolute paths that URL
	// normalization would otherwise mangle (drive letters in particular).
	PathOverride string

	headers map[string]string
}

// Header returns the value of a header by case-insensitive name, or "" when
// the header was not sent.
func (r *Request) Header(key string) string {
	return r.headers[strings.ToLower(key)]
}
