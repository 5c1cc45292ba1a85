package web

import (
	"errors"
	"net/http"

	"github.com/lansend/lansend/internal/transfer"
)

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"transfers": s.registry.List(),
	})
}

func (s *Server) handleTransferPause(w http.ResponseWriter, r *http.Request) {
	s.transferControl(w, r, s.registry.Pause)
}

func (s *Server) handleTransferResume(w http.ResponseWriter, r *http.Request) {
	s.transferControl(w, r, s.registry.Resume)
}

func (s *Server) handleTransferCancel(w http.ResponseWriter, r *http.Request) {
	s.transferControl(w, r, s.registry.Cancel)
}

func (s *Server) transferControl(w http.ResponseWriter, r *http.Request, op func(string) error) {
	id := r.PathValue("id")
	if err := op(id); err != nil {
		if errors.Is(err, transfer.ErrUnknownTransfer) {
			writeError(w, http.StatusNotFound, "Transfer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}
