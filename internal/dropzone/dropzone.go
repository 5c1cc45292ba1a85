// Package dropzone implements the receive-side drop box: peers push files
// through the web API and they are held, with metadata, until fetched or
// expired.
//
// Metadata lives in a BadgerDB index so drops survive restarts; the bytes
// themselves go to a pluggable content store (local directory by default,
// S3-compatible storage when configured). Expiry is enforced by a janitor
// loop, never at read time: a drop readable now is readable until the next
// sweep.
package dropzone

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lansend/lansend/internal/logger"
)

// Drop describes one received file held in the zone.
type Drop struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Origin      string    `json:"origin"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the drop is past its expiry at the given instant.
// A zero ExpiresAt means the drop never expires.
func (d Drop) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && d.ExpiresAt.Before(now)
}

// Zone ties the metadata index to the content store.
type Zone struct {
	index *Index
	store Store
	ttl   time.Duration
}

// NewZone creates a drop zone. A zero defaultTTL means drops are kept until
// explicitly removed.
func NewZone(index *Index, store Store, defaultTTL time.Duration) *Zone {
	return &Zone{index: index, store: store, ttl: defaultTTL}
}

// Add stores the content and registers the drop. The reader is consumed
// fully; on a store failure no index entry is left behind. The recorded
// size is the byte count actually read.
func (z *Zone) Add(ctx context.Context, name, origin, note string, r io.Reader) (Drop, error) {
	now := time.Now()
	drop := Drop{
		ID:          uuid.NewString(),
		Name:        filepath.Base(name),
		ContentType: guessContentType(name),
		Origin:      origin,
		Note:        note,
		CreatedAt:   now,
	}
	if z.ttl > 0 {
		drop.ExpiresAt = now.Add(z.ttl)
	}

	counted := &countingReader{r: r}
	if err := z.store.Put(ctx, drop.ID, counted); err != nil {
		return Drop{}, fmt.Errorf("store drop content: %w", err)
	}
	drop.Size = counted.n
	if err := z.index.Put(drop); err != nil {
		// Content without an index entry is unreachable; clean it up.
		if derr := z.store.Delete(ctx, drop.ID); derr != nil {
			logger.Warn("Orphaned drop content %s: %v", drop.ID, derr)
		}
		return Drop{}, fmt.Errorf("index drop: %w", err)
	}

	logger.Info("Drop received: %s (%d bytes) from %s", drop.Name, drop.Size, drop.Origin)
	return drop, nil
}

// Open returns the drop's metadata and a reader over its content.
func (z *Zone) Open(ctx context.Context, id string) (Drop, io.ReadCloser, error) {
	drop, err := z.index.Get(id)
	if err != nil {
		return Drop{}, nil, err
	}
	rc, err := z.store.Open(ctx, id)
	if err != nil {
		return Drop{}, nil, fmt.Errorf("open drop content: %w", err)
	}
	return drop, rc, nil
}

// List returns all drops, newest first.
func (z *Zone) List() ([]Drop, error) {
	return z.index.List()
}

// Remove deletes a drop's content and index entry.
func (z *Zone) Remove(ctx context.Context, id string) error {
	if _, err := z.index.Get(id); err != nil {
		return err
	}
	if err := z.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete drop content: %w", err)
	}
	return z.index.Delete(id)
}

// PruneExpired removes every drop past its expiry and returns the count.
func (z *Zone) PruneExpired(ctx context.Context) (int, error) {
	drops, err := z.index.List()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	removed := 0
	for _, drop := range drops {
		if !drop.Expired(now) {
			continue
		}
		if err := z.Remove(ctx, drop.ID); err != nil {
			logger.Warn("Failed to prune expired drop %s: %v", drop.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// RunJanitor sweeps expired drops at the given interval until the context
// is cancelled.
func (z *Zone) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := z.PruneExpired(ctx); err != nil {
				logger.Warn("Drop zone sweep failed: %v", err)
			} else if removed > 0 {
				logger.Info("Drop zone sweep removed %d expired drops", removed)
			}
		}
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func guessContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
