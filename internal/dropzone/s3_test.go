package dropzone

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket speaks just enough path-style S3 for the store's client: HEAD
// on the bucket, PUT/GET/DELETE on objects, and the NoSuchKey error shape.
type fakeBucket struct {
	name string

	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != b.name {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodHead && key == "":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		obj, ok := b.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj)))
		w.Write(obj)
	case r.Method == http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestS3Store(t *testing.T, keyPrefix string) (*S3Store, *fakeBucket) {
	t.Helper()

	bucket := &fakeBucket{name: "drops", objects: make(map[string][]byte)}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	store, err := NewS3Store(t.Context(), S3Config{
		Bucket:          "drops",
		Region:          "us-east-1",
		KeyPrefix:       keyPrefix,
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)
	return store, bucket
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, bucket := newTestS3Store(t, "")

	// A LimitedReader is neither seekable nor length-bearing, like the
	// multipart part the deposit handler feeds in.
	content := "hello drop zone"
	body := io.LimitReader(strings.NewReader(content), int64(len(content)))
	require.NoError(t, store.Put(ctx, "id-1", body))

	bucket.mu.Lock()
	stored := bucket.objects["id-1"]
	bucket.mu.Unlock()
	assert.Equal(t, content, string(stored), "uploaded bytes must match exactly")

	rc, err := store.Open(ctx, "id-1")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestS3StoreOpenMissing(t *testing.T) {
	store, _ := newTestS3Store(t, "")

	_, err := store.Open(context.Background(), "never-uploaded")
	assert.ErrorIs(t, err, ErrDropNotFound)
}

func TestS3StoreDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestS3Store(t, "")

	require.NoError(t, store.Put(ctx, "id-2", strings.NewReader("x")))
	require.NoError(t, store.Delete(ctx, "id-2"))

	_, err := store.Open(ctx, "id-2")
	assert.ErrorIs(t, err, ErrDropNotFound)

	// Deleting an absent key is a success.
	require.NoError(t, store.Delete(ctx, "id-2"))
}

func TestS3StoreKeyPrefix(t *testing.T) {
	ctx := context.Background()
	store, bucket := newTestS3Store(t, "inbox")

	require.NoError(t, store.Put(ctx, "id-3", strings.NewReader("prefixed")))

	bucket.mu.Lock()
	_, ok := bucket.objects["inbox/id-3"]
	bucket.mu.Unlock()
	assert.True(t, ok, "objects should land under the configured prefix")
}

func TestNewS3StoreUnreachableBucket(t *testing.T) {
	bucket := &fakeBucket{name: "drops", objects: make(map[string][]byte)}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	_, err := NewS3Store(t.Context(), S3Config{
		Bucket:          "someone-elses",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.Error(t, err)
}
