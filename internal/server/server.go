// Package server exposes the verification pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/llm"
	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/pipeline"
	"github.com/scdesign/factcheck/internal/task"
)

// maxUploadBytes caps multipart request bodies
const maxUploadBytes = 200 << 20

// Runner is the pipeline surface the HTTP handlers drive
type Runner interface {
	AcquireURL(ctx context.Context, rawURL string) (*acquire.MediaArtifact, error)
	SaveUpload(filename string, r io.Reader) (*acquire.MediaArtifact, error)
	Dispatch(ctx context.Context, artifact *acquire.MediaArtifact, opts pipeline.Options) *pipeline.Outcome
	CheckText(ctx context.Context, text string, opts pipeline.Options) *model.TaskResult
}

// Server binds the pipeline and task tracker to the HTTP surface
type Server struct {
	cfg     *model.Config
	pipe    Runner
	tracker *task.Tracker
	// ping validates a caller-supplied credential, replaceable in tests
	ping func(ctx context.Context, apiKey string) bool
}

// New builds the server around an assembled pipeline
func New(cfg *model.Config, pipe Runner, tracker *task.Tracker) *Server {
	return &Server{
		cfg:     cfg,
		pipe:    pipe,
		tracker: tracker,
		ping: func(ctx context.Context, apiKey string) bool {
			client, err := llm.NewClient(apiKey, cfg)
			if err != nil {
				return false
			}
			return client.Ping(ctx)
		},
	}
}

// Router assembles the chi route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", s.cfg.Server.APIKeyHeader},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/upload", s.handleUpload)
	r.Get("/task/{id}", s.handleTask)
	r.Post("/fact-check-text", s.handleText)
	r.Get("/models", s.handleModels)

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) options(r *http.Request) pipeline.Options {
	return pipeline.Options{
		APIKey:            llm.ResolveKey(r.Header.Get(s.cfg.Server.APIKeyHeader), s.cfg.OpenAIKey),
		UseWebSearch:      strings.EqualFold(r.FormValue("use_web_search"), "true"),
		PreferredLanguage: r.FormValue("preferred_language"),
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	var artifact *acquire.MediaArtifact
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		artifact, err = s.pipe.SaveUpload(header.Filename, file)
		if err != nil {
			s.writeAcquireError(w, err)
			return
		}
	} else if rawURL := r.FormValue("url"); rawURL != "" {
		artifact, err = s.pipe.AcquireURL(r.Context(), rawURL)
		if err != nil {
			s.writeAcquireError(w, err)
			return
		}
	} else {
		writeError(w, http.StatusBadRequest, "provide a media file or a post url")
		return
	}

	outcome := s.pipe.Dispatch(r.Context(), artifact, s.options(r))
	if outcome.TaskID != "" {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  string(model.TaskProcessing),
			"task_id": outcome.TaskID,
		})
		return
	}
	writeJSON(w, http.StatusOK, outcome.Result)
}

// writeAcquireError maps acquisition failures onto the error contract:
// caller mistakes are 400, an exhausted strategy ladder is 502 with a
// structured body the frontend can render.
func (s *Server) writeAcquireError(w http.ResponseWriter, err error) {
	var verr *acquire.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Msg)
		return
	}
	if errors.Is(err, acquire.ErrUnparseableURL) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var blocked *acquire.BlockedError
	if errors.As(err, &blocked) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":      "instagram_blocked",
			"message":    blocked.Error(),
			"suggestion": blocked.Suggestion(),
			"url":        blocked.URL,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tk, ok := s.tracker.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, tk)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form request")
		return
	}
	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result := s.pipe.CheckText(r.Context(), text, s.options(r))
	writeJSON(w, http.StatusOK, result)
}

// handleModels reports the configured capability surface. When the
// caller supplies their own credential the response says whether it
// validated against the backend.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"models": map[string]string{
			"transcription":  s.cfg.Models.Transcription,
			"fact_check":     s.cfg.Models.FactCheck,
			"image_analysis": s.cfg.Models.ImageAnalysis,
			"web_search":     s.cfg.Models.WebSearch,
		},
		"web_search_enabled": s.cfg.WebSearch.Enabled,
		"async_modalities":   s.cfg.Server.AsyncModalities,
	}

	if callerKey := r.Header.Get(s.cfg.Server.APIKeyHeader); callerKey != "" {
		resp["api_key_valid"] = s.ping(r.Context(), callerKey)
	}

	writeJSON(w, http.StatusOK, resp)
}
