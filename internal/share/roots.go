// Package share resolves client-supplied resource names to absolute
// filesystem paths and enforces that every read stays under one of the
// permitted roots: the configured shared directory or the invoking user's
// home tree.
//
// Containment is a textual prefix match on normalized paths, matching the
// observable behavior this service has always had. It is not symlink-aware:
// a symlink placed inside a permitted root that points outside of it will be
// served. This is a known limitation, kept on purpose — resolving symlinks
// here would break legitimate symlinked shares.
package share

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrForbidden is returned for paths outside every permitted root.
	ErrForbidden = errors.New("path outside permitted roots")

	// ErrNotFound is returned for paths that do not name an existing
	// regular file.
	ErrNotFound = errors.New("no such file")
)

// Roots is the set of filesystem roots reads are permitted under.
//
// The home directory is fixed for the process lifetime. The shared directory
// may be reassigned by an administrative request at any time; each request
// reads it as a single atomic snapshot, so reassignment affects subsequent
// requests only, never requests already in flight.
type Roots struct {
	home string

	mu     sync.RWMutex
	shared string
}

// NewRoots creates a Roots with the given shared directory. The directory is
// resolved to an absolute path so containment checks are meaningful. An empty
// sharedDir falls back to the user's Downloads directory if it exists, else
// the current working directory.
func NewRoots(sharedDir string) (*Roots, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determine home directory: %w", err)
	}

	if sharedDir == "" {
		downloads := filepath.Join(home, "Downloads")
		if info, err := os.Stat(downloads); err == nil && info.IsDir() {
			sharedDir = downloads
		} else if sharedDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
	}

	abs, err := filepath.Abs(sharedDir)
	if err != nil {
		return nil, fmt.Errorf("resolve shared directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat shared directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("shared directory %s is not a directory", abs)
	}

	return &Roots{
		home:   filepath.Clean(home),
		shared: filepath.Clean(abs),
	}, nil
}

// Shared returns the current shared directory.
func (r *Roots) Shared() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shared
}

// Home returns the user's home directory.
func (r *Roots) Home() string {
	return r.home
}

// SetShared reassigns the shared directory. The new value must name an
// existing directory.
func (r *Roots) SetShared(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory %s does not exist", dir)
	}

	r.mu.Lock()
	r.shared = filepath.Clean(abs)
	r.mu.Unlock()
	return nil
}

// Resolve maps a request path to an absolute filesystem path and checks it
// against the permitted roots.
//
// Resolution rules, in order:
//  1. A non-empty queryPath (the ?path= carrier, used by clients whose URL
//     normalization mangles absolute paths) is used verbatim after
//     normalization.
//  2. A rawPath that looks like a Windows drive-letter path or is already
//     absolute is treated as absolute.
//  3. Anything else is relative to the current shared directory.
//
// Returns ErrForbidden if the normalized result is outside both roots, and
// ErrNotFound if it does not name an existing regular file. The containment
// check runs before the existence check so probes outside the roots never
// learn whether a file exists.
func (r *Roots) Resolve(rawPath, queryPath string) (string, fs.FileInfo, error) {
	shared := r.Shared()
	name := strings.TrimLeft(rawPath, "/")

	var resolved string
	switch {
	case queryPath != "":
		resolved = filepath.Clean(queryPath)
	case isDriveLetter(name) || filepath.IsAbs(name):
		resolved = filepath.Clean(name)
	default:
		resolved = filepath.Clean(filepath.Join(shared, name))
	}

	if !hasPrefixPath(resolved, shared) && !hasPrefixPath(resolved, r.home) {
		return "", nil, ErrForbidden
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", nil, ErrNotFound
	}

	return resolved, info, nil
}

// CheckDir reports whether dir may be listed: it must equal the shared
// directory or live under it, or live under the home tree.
func (r *Roots) CheckDir(dir string) (string, error) {
	resolved := filepath.Clean(dir)
	shared := r.Shared()

	inShared := resolved == shared || hasPrefixPath(resolved, shared+string(filepath.Separator))
	inHome := hasPrefixPath(resolved, r.home)
	if !inShared && !inHome {
		return "", ErrForbidden
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", ErrNotFound
	}

	return resolved, nil
}

// isDriveLetter reports whether p starts with a Windows drive-letter pattern
// such as "C:". Phones hand these over unchanged even when the server runs
// elsewhere, so the check is textual rather than platform-conditional.
func isDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}

func hasPrefixPath(p, prefix string) bool {
	return len(p) >= len(prefix) && p[:len(prefix)] == prefix
}
