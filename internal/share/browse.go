package share

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry describes one file or directory in a listing.
type Entry struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	IsDir     bool    `json:"is_dir"`
	Size      int64   `json:"size,omitempty"`
	Modified  float64 `json:"modified,omitempty"`
	Extension string  `json:"extension,omitempty"`
}

// SpecialDir is a well-known user directory surfaced to clients for quick
// navigation.
type SpecialDir struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	FileCount int    `json:"file_count"`
	Icon      string `json:"icon"`
}

// List returns the files and subdirectories of dir, each slice sorted by
// case-insensitive name. Entries that cannot be stat'ed are skipped rather
// than failing the whole listing.
func List(dir string) (files, dirs []Entry, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	files = make([]Entry, 0, len(entries))
	dirs = make([]Entry, 0, len(entries))

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())

		if e.IsDir() {
			dirs = append(dirs, Entry{Name: e.Name(), Path: path, IsDir: true})
			continue
		}

		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		files = append(files, Entry{
			Name:      e.Name(),
			Path:      path,
			Size:      info.Size(),
			Modified:  float64(info.ModTime().UnixNano()) / 1e9,
			Extension: strings.ToLower(filepath.Ext(e.Name())),
		})
	}

	byName := func(entries []Entry) func(i, j int) bool {
		return func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		}
	}
	sort.Slice(dirs, byName(dirs))
	sort.Slice(files, byName(files))

	return files, dirs, nil
}

// ParentDir returns the parent of dir, or "" when dir is its own parent
// (filesystem root).
func ParentDir(dir string) string {
	parent := filepath.Dir(dir)
	if parent == dir {
		return ""
	}
	return parent
}

// CommonDirs returns the user directories that exist under home, in display
// order.
func CommonDirs(home string) []Entry {
	names := []string{"Desktop", "Downloads", "Documents", "Pictures", "Music", "Videos"}

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		path := filepath.Join(home, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			out = append(out, Entry{Name: name, Path: path, IsDir: true})
		}
	}
	return out
}

// SpecialDirs returns the well-known user directories with file counts and
// display icons.
func SpecialDirs(home string) []SpecialDir {
	dirs := []struct {
		name     string
		relative string
	}{
		{"Desktop", "Desktop"},
		{"Downloads", "Downloads"},
		{"Documents", "Documents"},
		{"Pictures", "Pictures"},
		{"Music", "Music"},
		{"Videos", "Videos"},
		{"Android APKs", "Downloads"},
	}

	out := make([]SpecialDir, 0, len(dirs))
	for _, d := range dirs {
		path := filepath.Join(home, d.relative)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		count := 0
		if entries, err := os.ReadDir(path); err == nil {
			count = len(entries)
		}

		out = append(out, SpecialDir{
			Name:      d.name,
			Path:      path,
			FileCount: count,
			Icon:      dirIcon(d.name),
		})
	}
	return out
}

func dirIcon(name string) string {
	icons := map[string]string{
		"Desktop":      "desktop",
		"Downloads":    "download",
		"Documents":    "folder",
		"Pictures":     "image",
		"Music":        "music",
		"Videos":       "video",
		"Android APKs": "android",
	}
	if icon, ok := icons[name]; ok {
		return icon
	}
	return "folder"
}
