package rawhttp

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	t.Run("ParsesSimpleGet", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(
			"GET /a.txt HTTP/1.1\r\nHost: x\r\nRange: bytes=0-4\r\n\r\n"))
		require.NoError(t, err)

		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "/a.txt", req.Path)
		assert.Empty(t, req.PathOverride)
		assert.Equal(t, "bytes=0-4", req.Header("Range"))
	})

	t.Run("LowercasesMethodIsNormalized", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader("get / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "GET", req.Method)
	})

	t.Run("HeaderLookupIsCaseInsensitive", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(
			"GET / HTTP/1.1\r\nRaNgE: bytes=1-2\r\n\r\n"))
		require.NoError(t, err)

		assert.Equal(t, "bytes=1-2", req.Header("range"))
		assert.Equal(t, "bytes=1-2", req.Header("RANGE"))
	})

	t.Run("DecodesPercentEscapedPath", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(
			"GET /my%20file.txt HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "/my file.txt", req.Path)
	})

	t.Run("UndecodablePathPassedVerbatim", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(
			"GET /bad%zzescape HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "/bad%zzescape", req.Path)
	})

	t.Run("ExtractsPathQueryParameter", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(
			"GET /download?path=%2Fsrv%2Fshare%2Ff.bin HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)

		assert.Equal(t, "/download", req.Path)
		assert.Equal(t, "/srv/share/f.bin", req.PathOverride)
	})

	t.Run("SkipsMalformedHeaderLines", func(t *testing.T) {
		req, err := ReadRequest(strings.NewReader(
			"GET / HTTP/1.1\r\nthis line has no colon\r\nGood: yes\r\n\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "yes", req.Header("Good"))
	})

	t.Run("HeadersSplitAcrossReads", func(t *testing.T) {
		// iotest-style slow reader: one byte per Read call.
		req, err := ReadRequest(oneByteReader{strings.NewReader(
			"GET /f HTTP/1.1\r\nA: b\r\n\r\n")})
		require.NoError(t, err)
		assert.Equal(t, "/f", req.Path)
		assert.Equal(t, "b", req.Header("a"))
	})

	t.Run("EOFBeforeTerminator", func(t *testing.T) {
		_, err := ReadRequest(strings.NewReader("GET / HTTP/1.1\r\nHost: x"))
		assert.Equal(t, io.EOF, err)
	})

	t.Run("OversizedHeadersRejected", func(t *testing.T) {
		huge := "GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", MaxHeaderBytes+1)
		_, err := ReadRequest(strings.NewReader(huge))
		assert.ErrorIs(t, err, ErrHeaderTooLarge)
	})

	t.Run("MissingTargetRejected", func(t *testing.T) {
		_, err := ReadRequest(strings.NewReader("GET\r\n\r\n"))
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})
}

type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}
