package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/shelfmap/internal/photostore"
	"github.com/vbonduro/shelfmap/internal/service"
)

type Server struct {
	service *service.SpaceService
	photos  photostore.PhotoStore
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.SpaceService, photos photostore.PhotoStore, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		photos:  photos,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/spaces", s.handleListSpaces)
	s.mux.HandleFunc("POST /api/spaces", s.handleCreateSpace)
	s.mux.HandleFunc("GET /api/spaces/{spaceID}", s.handleGetSpace)
	s.mux.HandleFunc("PATCH /api/spaces/{spaceID}", s.handleRenameSpace)
	s.mux.HandleFunc("DELETE /api/spaces/{spaceID}", s.handleDeleteSpace)
	s.mux.HandleFunc("GET /api/spaces/{spaceID}/sections", s.handleSpaceSections)
	s.mux.HandleFunc("GET /api/spaces/{spaceID}/markers", s.handleSpaceMarkers)

	s.mux.HandleFunc("POST /api/spaces/{spaceID}/locations", s.handleAddLocation)
	s.mux.HandleFunc("DELETE /api/spaces/{spaceID}/locations/{locationID}", s.handleDeleteLocation)

	s.mux.HandleFunc("POST /api/spaces/{spaceID}/locations/{locationID}/items", s.handleAddItem)
	s.mux.HandleFunc("PUT /api/spaces/{spaceID}/locations/{locationID}/items/{itemID}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /api/spaces/{spaceID}/locations/{locationID}/items/{itemID}", s.handleDeleteItem)
	s.mux.HandleFunc("POST /api/spaces/{spaceID}/locations/{locationID}/items/{itemID}/move", s.handleMoveItem)

	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/describe", s.handleDescribe)
	s.mux.HandleFunc("GET /api/ids", s.handleGenerateID)

	s.mux.HandleFunc("GET /photos/{name}", s.handleGetPhoto)
}

// securityHeaders sets CSP and related headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
