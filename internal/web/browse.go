package web

import (
	"errors"
	"net/http"

	"github.com/lansend/lansend/internal/share"
)

type listingResponse struct {
	Files      []share.Entry `json:"files"`
	Dirs       []share.Entry `json:"directories"`
	CommonDirs []share.Entry `json:"common_dirs,omitempty"`
	CurrentDir string        `json:"current_dir"`
	ParentDir  string        `json:"parent_dir,omitempty"`
	UserHome   string        `json:"user_home,omitempty"`
}

// handleFiles lists the requested directory, defaulting to the shared one.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("directory")
	if dir == "" {
		dir = s.roots.Shared()
	}
	s.listDirectory(w, dir, false)
}

// handleBrowse lists any directory under the permitted roots, with the
// common user directories attached for navigation.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("path")
	if dir == "" {
		dir = s.roots.Shared()
	}
	s.listDirectory(w, dir, true)
}

func (s *Server) listDirectory(w http.ResponseWriter, dir string, withCommon bool) {
	resolved, err := s.roots.CheckDir(dir)
	switch {
	case errors.Is(err, share.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied")
		return
	case errors.Is(err, share.ErrNotFound):
		writeError(w, http.StatusNotFound, "Directory not found")
		return
	}

	files, dirs, err := share.List(resolved)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read directory")
		return
	}

	resp := listingResponse{
		Files:      files,
		Dirs:       dirs,
		CurrentDir: resolved,
		ParentDir:  share.ParentDir(resolved),
	}
	if withCommon {
		resp.CommonDirs = share.CommonDirs(s.roots.Home())
		resp.UserHome = s.roots.Home()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpecialDirs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]share.SpecialDir{
		"special_dirs": share.SpecialDirs(s.roots.Home()),
	})
}
