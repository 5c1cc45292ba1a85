package dropzone

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store holds drop content by id. Implementations must tolerate Delete on
// ids they have never seen.
type Store interface {
	// Put writes the content for id, consuming r fully. The content length
	// is whatever r yields; callers never know it up front.
	Put(ctx context.Context, id string, r io.Reader) error

	// Open returns a reader over the content for id.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes the content for id.
	Delete(ctx context.Context, id string) error
}

// FSStore keeps drop content as flat files in a directory. Writes go to a
// temp file first and rename into place, so a crashed upload never leaves a
// partial drop readable.
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed and returns the store.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create drop directory %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Put(ctx context.Context, id string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write drop content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close drop content: %w", err)
	}

	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize drop content: %w", err)
	}
	return nil
}

func (s *FSStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("open drop content: %w", err)
	}
	return f, nil
}

func (s *FSStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove drop content: %w", err)
	}
	return nil
}

func (s *FSStore) path(id string) string {
	// ids are uuids, never attacker-controlled paths, but Base keeps this
	// safe even if that changes.
	return filepath.Join(s.dir, filepath.Base(id))
}
