package web

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/atotto/clipboard"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/netutil"
)

// handleInfo returns what a client needs to pair: addresses, ports, the
// shared directory, and a QR image of the pairing URL.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	ip := netutil.LocalIP()
	url := fmt.Sprintf("http://%s:%d", ip, s.config.Port)
	browserURL := url + "/browser"

	png, err := qrcode.Encode(browserURL, qrcode.Low, 256)
	if err != nil {
		logger.Warn("QR generation failed: %v", err)
	}

	resp := map[string]any{
		"ip":          ip,
		"port":        s.config.Port,
		"fast_port":   s.fastPort,
		"url":         url,
		"browser_url": browserURL,
		"directory":   s.roots.Shared(),
		"status":      "running",
	}
	if png != nil {
		resp["qr_code"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleQRImage serves the pairing QR as a raw PNG for clients that render
// it directly.
func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	url := fmt.Sprintf("http://%s:%d/browser", netutil.LocalIP(), s.config.Port)
	png, err := qrcode.Encode(url, qrcode.Low, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleSetDirectory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Directory string `json:"directory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Directory == "" {
		writeError(w, http.StatusBadRequest, "Directory does not exist")
		return
	}

	if err := s.roots.SetShared(body.Directory); err != nil {
		writeError(w, http.StatusBadRequest, "Directory does not exist")
		return
	}

	dir := s.roots.Shared()
	logger.Info("Shared directory set to %s", dir)
	if s.onDirChange != nil {
		s.onDirChange(dir)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "directory": dir})
}

// handleClipboard copies text from a phone onto the host clipboard. The copy
// runs in the background: clipboard tooling can block on a headless host and
// the phone should not wait on it.
func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	go func(text string) {
		if err := clipboard.WriteAll(text); err != nil {
			logger.Debug("Clipboard write failed: %v", err)
		}
	}(body.Text)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
