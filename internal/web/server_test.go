package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lansend/lansend/internal/dropzone"
	"github.com/lansend/lansend/internal/share"
	"github.com/lansend/lansend/internal/transfer"
)

type fixture struct {
	server *Server
	ts     *httptest.Server
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	roots, err := share.NewRoots(dir)
	require.NoError(t, err)

	index, err := dropzone.OpenIndex(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	store, err := dropzone.NewFSStore(filepath.Join(t.TempDir(), "drops"))
	require.NoError(t, err)

	srv := New(Config{Port: 5000}, roots, transfer.NewRegistry(0), Options{
		Zone:     dropzone.NewZone(index, store, 0),
		FastPort: 5001,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{server: srv, ts: ts, dir: dir}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0644))
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestFilesListing(t *testing.T) {
	f := newFixture(t)
	f.write(t, "b.txt", "bb")
	f.write(t, "A.txt", "a")
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "sub"), 0755))

	var body struct {
		Files []share.Entry `json:"files"`
		Dirs  []share.Entry `json:"directories"`
	}
	status := getJSON(t, f.ts.URL+"/api/files", &body)
	require.Equal(t, http.StatusOK, status)

	require.Len(t, body.Files, 2)
	assert.Equal(t, "A.txt", body.Files[0].Name, "case-insensitive sort")
	assert.Equal(t, "b.txt", body.Files[1].Name)
	require.Len(t, body.Dirs, 1)
	assert.Equal(t, "sub", body.Dirs[0].Name)
}

func TestBrowseDeniedOutsideRoots(t *testing.T) {
	f := newFixture(t)
	status := getJSON(t, f.ts.URL+"/api/browse?path=/etc", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	f.write(t, "notes.txt", "hello world")

	t.Run("full", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/download/notes.txt")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "11", resp.Header.Get("Content-Length"))
		body := new(bytes.Buffer)
		body.ReadFrom(resp.Body)
		assert.Equal(t, "hello world", body.String())
	})

	t.Run("range", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/api/download/notes.txt", nil)
		req.Header.Set("Range", "bytes=6-10")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 6-10/11", resp.Header.Get("Content-Range"))
		body := new(bytes.Buffer)
		body.ReadFrom(resp.Body)
		assert.Equal(t, "world", body.String())
	})

	t.Run("missing", func(t *testing.T) {
		status := getJSON(t, f.ts.URL+"/api/download/nope.txt", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("escape denied", func(t *testing.T) {
		status := getJSON(t, f.ts.URL+"/api/download/x?path=/etc/passwd", nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("apk content type", func(t *testing.T) {
		f.write(t, "app.apk", "not really an apk")
		resp, err := http.Get(f.ts.URL + "/api/download/app.apk")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "application/vnd.android.package-archive",
			resp.Header.Get("Content-Type"))
	})
}

func TestDownloadAppearsInTransferList(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "abc")

	resp, err := http.Get(f.ts.URL + "/api/download/a.txt")
	require.NoError(t, err)
	resp.Body.Close()

	var body struct {
		Transfers []transfer.Record `json:"transfers"`
	}
	status := getJSON(t, f.ts.URL+"/api/transfers", &body)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Transfers, 1)
	assert.Equal(t, "a.txt", body.Transfers[0].Name)
	assert.Equal(t, transfer.StatusDone, body.Transfers[0].Status)
	assert.Equal(t, int64(3), body.Transfers[0].Sent)
}

func TestTransferControlUnknownID(t *testing.T) {
	f := newFixture(t)
	for _, op := range []string{"pause", "resume", "cancel"} {
		resp, err := http.Post(f.ts.URL+"/api/transfers/nope/"+op, "", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, op)
	}
}

func TestUpload(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../sneaky/upload.bin")
	require.NoError(t, err)
	fw.Write([]byte("uploaded bytes"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Directory components are stripped from the client-supplied name.
	data, err := os.ReadFile(filepath.Join(f.dir, "upload.bin"))
	require.NoError(t, err)
	assert.Equal(t, "uploaded bytes", string(data))
}

func TestSetDirectory(t *testing.T) {
	f := newFixture(t)
	next := t.TempDir()

	body, _ := json.Marshal(map[string]string{"directory": next})
	resp, err := http.Post(f.ts.URL+"/api/set_directory", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, next, f.server.roots.Shared())

	t.Run("missing directory rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"directory": "/does/not/exist"})
		resp, err := http.Post(f.ts.URL+"/api/set_directory", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestInfo(t *testing.T) {
	f := newFixture(t)

	var body struct {
		IP       string `json:"ip"`
		Port     int    `json:"port"`
		FastPort int    `json:"fast_port"`
		QRCode   string `json:"qr_code"`
		Status   string `json:"status"`
	}
	status := getJSON(t, f.ts.URL+"/api/info", &body)
	require.Equal(t, http.StatusOK, status)

	assert.NotEmpty(t, body.IP)
	assert.Equal(t, 5000, body.Port)
	assert.Equal(t, 5001, body.FastPort)
	assert.Equal(t, "running", body.Status)
	assert.Contains(t, body.QRCode, "data:image/png;base64,")
}

func TestDropZoneLifecycle(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "for you"))
	fw, err := mw.CreateFormFile("file", "gift.txt")
	require.NoError(t, err)
	fw.Write([]byte("surprise"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.ts.URL+"/api/dropzone", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	var drop dropzone.Drop
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&drop))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "gift.txt", drop.Name)
	assert.Equal(t, int64(len("surprise")), drop.Size)
	assert.Equal(t, "for you", drop.Note)

	var listing struct {
		Drops []dropzone.Drop `json:"drops"`
	}
	status := getJSON(t, f.ts.URL+"/api/dropzone", &listing)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, listing.Drops, 1)

	pickup, err := http.Get(f.ts.URL + "/api/dropzone/" + drop.ID)
	require.NoError(t, err)
	picked := new(bytes.Buffer)
	picked.ReadFrom(pickup.Body)
	pickup.Body.Close()
	require.Equal(t, http.StatusOK, pickup.StatusCode)
	assert.Equal(t, "surprise", picked.String())

	req, _ := http.NewRequest(http.MethodDelete, f.ts.URL+"/api/dropzone/"+drop.ID, nil)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusOK, del.StatusCode)

	status = getJSON(t, f.ts.URL+"/api/dropzone/"+drop.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/files", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPausedDownloadStalls(t *testing.T) {
	f := newFixture(t)

	content := bytes.Repeat([]byte("x"), 8*1024*1024)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "big.bin"), content, 0644))

	resp, err := http.Get(f.ts.URL + "/api/download/big.bin")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Find the live transfer and pause it.
	var id string
	deadline := time.Now().Add(5 * time.Second)
	for id == "" && time.Now().Before(deadline) {
		for _, rec := range f.server.registry.List() {
			if rec.Status == transfer.StatusActive {
				id = rec.ID
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NotEmpty(t, id, "no active transfer found")
	require.NoError(t, f.server.registry.Pause(id))

	require.NoError(t, f.server.registry.Cancel(id))
	n, _ := bytes.NewBuffer(nil).ReadFrom(resp.Body)
	assert.Less(t, n, int64(len(content)), "canceled download should stop short")
}

func TestUploadTooLarge(t *testing.T) {
	dir := t.TempDir()
	roots, err := share.NewRoots(dir)
	require.NoError(t, err)

	srv := New(Config{Port: 5000, MaxUploadBytes: 1024}, roots, transfer.NewRegistry(0), Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "big.bin")
	require.NoError(t, err)
	fw.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		// The server may reset the connection once the cap is hit.
		return
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	_, statErr := os.Stat(filepath.Join(dir, "big.bin"))
	assert.True(t, os.IsNotExist(statErr), "oversized upload must not leave a partial file")
}
