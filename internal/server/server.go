package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agusespa/devassist/internal/llm"
	"github.com/agusespa/devassist/internal/syntax"
	"github.com/sirupsen/logrus"
)

//go:embed static/*
var staticFS embed.FS

const (
	// MaxRequestBodySize caps POST /analyze bodies (1MB).
	MaxRequestBodySize = 1 << 20

	ShutdownTimeout = 30 * time.Second
)

// snippetInspector reports syntax problems in a submitted snippet.
type snippetInspector interface {
	Supports(language string) bool
	Inspect(language, code string) (syntax.Report, error)
}

type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// Inspector is optional; without it snippets are not inspected.
	Inspector snippetInspector
}

// Server is the HTTP boundary of the analysis service. It holds no
// per-request state; the completer is shared by every request.
type Server struct {
	completer llm.Completer
	inspector snippetInspector
	handler   http.Handler
	server    *http.Server
}

func New(completer llm.Completer, opts Options) *Server {
	s := &Server{
		completer: completer,
		inspector: opts.Inspector,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = requestID(cors(accessLog(mux)))

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /static/highlight.css", s.handleHighlightCSS)
	mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))

	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /highlight", s.handleHighlight)
	mux.HandleFunc("GET /languages", s.handleLanguages)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logrus.Infof("Starting server on %s (model %s)", s.server.Addr, s.completer.GetModel())
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logrus.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logrus.Info("Server stopped")
		return nil

	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
