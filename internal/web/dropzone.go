package web

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/lansend/lansend/internal/dropzone"
	"github.com/lansend/lansend/internal/logger"
)

// handleDropDeposit accepts one multipart file into the drop zone.
func (s *Server) handleDropDeposit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form")
		return
	}

	var note string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			writeError(w, http.StatusBadRequest, "No file part")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "Malformed multipart form")
			return
		}

		if part.FormName() == "note" {
			data, _ := io.ReadAll(io.LimitReader(part, 4096))
			note = string(data)
			part.Close()
			continue
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		origin, _, _ := net.SplitHostPort(r.RemoteAddr)
		drop, err := s.zone.Add(r.Context(), part.FileName(), origin, note, part)
		part.Close()
		if err != nil {
			logger.Warn("Drop deposit failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to store drop")
			return
		}
		writeJSON(w, http.StatusCreated, drop)
		return
	}
}

func (s *Server) handleDropList(w http.ResponseWriter, r *http.Request) {
	drops, err := s.zone.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list drops")
		return
	}
	if drops == nil {
		drops = []dropzone.Drop{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drops": drops})
}

func (s *Server) handleDropPickup(w http.ResponseWriter, r *http.Request) {
	drop, rc, err := s.zone.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, dropzone.ErrDropNotFound) {
			writeError(w, http.StatusNotFound, "Drop not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to open drop")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", drop.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(drop.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", drop.Name))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Debug("Drop pickup aborted: %v", err)
	}
}

func (s *Server) handleDropDiscard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.zone.Remove(r.Context(), id); err != nil {
		if errors.Is(err, dropzone.ErrDropNotFound) {
			writeError(w, http.StatusNotFound, "Drop not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to remove drop")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}
