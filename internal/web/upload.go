package web

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lansend/lansend/internal/logger"
)

// handleUpload receives one multipart file and streams it into the shared
// directory in fixed-size chunks so large uploads never sit in memory.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form")
		return
	}

	part, err := reader.NextPart()
	if err != nil || part.FormName() != "file" {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer part.Close()

	filename := filepath.Base(part.FileName())
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	dest := filepath.Join(s.roots.Shared(), filename)
	f, err := os.Create(dest)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create file")
		return
	}

	written, err := io.CopyBuffer(f, part, make([]byte, s.config.UploadChunkSize))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum allowed size is 500MB.")
			return
		}
		logger.Warn("Upload of %s failed: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	logger.Info("Received upload %s (%d bytes)", filename, written)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": filename,
		"size":     written,
	})
}
