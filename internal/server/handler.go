package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/agusespa/devassist/internal/highlight"
	"github.com/agusespa/devassist/internal/prompts"
	"github.com/agusespa/devassist/internal/types"
	"github.com/sirupsen/logrus"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req types.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logger.WithError(err).Debug("Rejected malformed analyze body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := types.ParseAnalysisKind(req.Type)
	if err != nil {
		logger.WithField("type", req.Type).Info("Rejected unsupported analysis type")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported analysis type %q", req.Type))
		return
	}

	prompt, err := prompts.Build(kind, req.Language, req.Code)
	if err != nil {
		logger.WithError(err).Error("Failed to build prompt")
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	logger = logger.WithFields(logrus.Fields{
		"kind":       kind.String(),
		"language":   req.Language,
		"code_bytes": len(req.Code),
	})
	s.inspect(w, logger, req)

	start := time.Now()
	text, err := s.completer.Complete(r.Context(), prompt)
	if err != nil {
		logger.WithError(err).WithField("duration", time.Since(start)).Error("Completion failed")
		writeError(w, http.StatusBadGateway, "analysis failed")
		return
	}
	logger.WithField("duration", time.Since(start)).Info("Analysis completed")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, text); err != nil {
		logger.WithError(err).Warn("Failed to write analysis response")
	}
}

// inspect annotates the response with the snippet's syntax error count. It
// never rejects a request.
func (s *Server) inspect(w http.ResponseWriter, logger *logrus.Entry, req types.AnalysisRequest) {
	if s.inspector == nil || req.Code == "" || !s.inspector.Supports(req.Language) {
		return
	}
	report, err := s.inspector.Inspect(req.Language, req.Code)
	if err != nil {
		logger.WithError(err).Debug("Snippet inspection failed")
		return
	}
	w.Header().Set("X-Syntax-Errors", strconv.Itoa(report.ErrorCount))
	if report.HasErrors() {
		logger.WithFields(logrus.Fields{
			"syntax_errors":    report.ErrorCount,
			"first_error_line": report.FirstErrLine,
		}).Info("Snippet has syntax errors")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		loggerFrom(r).WithError(err).Error("Missing embedded index page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

type highlightRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// handleHighlight renders a result as chroma markup for the page. The
// classes match the stylesheet served at /static/highlight.css.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req highlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, highlight.HTMLFor(req.Language)(req.Text))
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = io.WriteString(w, highlight.CSS())
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.Languages())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, "Error: "+message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode JSON response")
	}
}
