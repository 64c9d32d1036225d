// Package httpapi exposes the voice service over HTTP.
//
// The API lists voices, accepts reference-clip uploads, synthesizes speech and
// serves the generated files. Liveness and readiness probes and an optional
// Swagger UI are mounted next to it.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/speech"
	"github.com/book-expert/voice-service/internal/voice"

	// Registers the OpenAPI document served under /swagger/doc.json.
	_ "github.com/book-expert/voice-service/internal/httpapi/docs"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	readinessTimeout  = 3 * time.Second
	maxMultipartMem   = 8 << 20
	defaultMaxUpload  = 25 << 20
)

// Config holds the listener settings.
type Config struct {
	Port           int
	MaxUploadBytes int64
	SwaggerUI      bool
	CORS           bool
}

// Server is the HTTP front of the voice service.
type Server struct {
	cfg      Config
	service  *speech.Service
	store    *voice.Store
	ingestor *voice.Ingestor
	log      *logger.Logger
	server   *http.Server
}

// New creates the HTTP server.
func New(cfg Config, service *speech.Service, store *voice.Store, ingestor *voice.Ingestor, log *logger.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}

	return &Server{
		cfg:      cfg,
		service:  service,
		store:    store,
		ingestor: ingestor,
		log:      log,
	}
}

// Handler returns the routed handler, wrapped in CORS when enabled.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("POST /api/upload_voice", s.handleUploadVoice)
	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("GET /static/audio/{filename}", s.handleAudio)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	if s.cfg.SwaggerUI {
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	if !s.cfg.CORS {
		return mux
	}

	return withCORS(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.log.System("HTTP API listening on port %d", s.cfg.Port)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := s.server.Shutdown(shutdownCtx)
		if err != nil {
			s.log.Warn("HTTP API shutdown: %v", err)
		}
	}()

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}

	return nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}
