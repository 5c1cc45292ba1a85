// Package web serves the JSON control API: directory browsing, uploads,
// Range-capable downloads, transfer control, drop zone access, and the
// pairing info clients scan to connect. The high-throughput raw-socket path
// lives in fastserve; this layer is ordinary net/http.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lansend/lansend/internal/dropzone"
	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/metrics"
	"github.com/lansend/lansend/internal/ratelimiter"
	"github.com/lansend/lansend/internal/share"
	"github.com/lansend/lansend/internal/transfer"
)

// Config holds the web server settings.
type Config struct {
	// Port to listen on. The fast transfer port is conventionally Port+1.
	Port int

	// MaxUploadBytes caps a single multipart upload.
	MaxUploadBytes int64

	// UploadChunkSize is the copy buffer for streaming uploads to disk.
	UploadChunkSize int

	// Timeouts for the underlying http.Server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ApplyDefaults fills zero fields with production defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 500 * 1024 * 1024
	}
	if c.UploadChunkSize == 0 {
		c.UploadChunkSize = 1024 * 1024
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	// WriteTimeout stays zero by default: downloads of large files over
	// slow Wi-Fi can legitimately take a long time.
}

// Server is the web API server.
type Server struct {
	config   Config
	roots    *share.Roots
	registry *transfer.Registry
	zone     *dropzone.Zone
	limiter  *ratelimiter.ClientLimiter
	metrics  metrics.WebMetrics

	// fastPort is advertised in pairing info so clients know where the
	// raw transfer listener is.
	fastPort int

	// onDirChange is invoked after the shared directory is reassigned so
	// the file watcher can follow.
	onDirChange func(dir string)

	mu   sync.Mutex
	http *http.Server
}

// Options carries the optional collaborators; any field may be nil.
type Options struct {
	Zone        *dropzone.Zone
	Limiter     *ratelimiter.ClientLimiter
	Metrics     metrics.WebMetrics
	FastPort    int
	OnDirChange func(dir string)
}

// New creates the web server.
func New(cfg Config, roots *share.Roots, registry *transfer.Registry, opts Options) *Server {
	cfg.ApplyDefaults()
	m := opts.Metrics
	if m == nil {
		m = metrics.NewWebMetrics()
	}
	return &Server{
		config:      cfg,
		roots:       roots,
		registry:    registry,
		zone:        opts.Zone,
		limiter:     opts.Limiter,
		metrics:     m,
		fastPort:    opts.FastPort,
		onDirChange: opts.OnDirChange,
	}
}

// Handler builds the full route table. Exposed separately from Serve so
// tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/files", s.handleFiles)
	mux.HandleFunc("GET /api/browse", s.handleBrowse)
	mux.HandleFunc("GET /api/special_dirs", s.handleSpecialDirs)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/download/{name...}", s.handleDownload)
	mux.HandleFunc("GET /api/transfers", s.handleTransfers)
	mux.HandleFunc("POST /api/transfers/{id}/pause", s.handleTransferPause)
	mux.HandleFunc("POST /api/transfers/{id}/resume", s.handleTransferResume)
	mux.HandleFunc("POST /api/transfers/{id}/cancel", s.handleTransferCancel)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/qr", s.handleQRImage)
	mux.HandleFunc("POST /api/set_directory", s.handleSetDirectory)
	mux.HandleFunc("POST /api/clipboard", s.handleClipboard)

	if s.zone != nil {
		mux.HandleFunc("POST /api/dropzone", s.handleDropDeposit)
		mux.HandleFunc("GET /api/dropzone", s.handleDropList)
		mux.HandleFunc("GET /api/dropzone/{id}", s.handleDropPickup)
		mux.HandleFunc("DELETE /api/dropzone/{id}", s.handleDropDiscard)
	}

	if metrics.IsEnabled() {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var handler http.Handler = mux
	handler = s.instrument(handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = corsMiddleware(handler)
	return handler
}

// Serve listens until the context is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Web server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	}
}

// corsMiddleware answers preflights and stamps every response, matching the
// permissive posture of the fast transfer port. The service trusts its LAN.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordRequest(r.URL.Path, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
