package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/docutag/interlinker"
	"github.com/docutag/interlinker/db"
	"github.com/docutag/interlinker/metrics"
	"github.com/docutag/interlinker/models"
	"github.com/docutag/interlinker/slug"
	"github.com/docutag/interlinker/storage"
)

const maxBodyBytes = 10 << 20

// Server represents the API server
type Server struct {
	db          *db.DB
	engine      *interlinker.Engine
	heuristics  *interlinker.Heuristics
	collector   *metrics.Collector
	storage     storage.Store
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr         string
	DBConfig     db.Config
	StoragePath  string        // Filesystem storage root, used when Store is nil
	Store        storage.Store // Optional alternative backend such as S3
	EngineConfig interlinker.Config
	Heuristics   *interlinker.Heuristics
	CORSEnabled  bool
	Sanitize     bool // Run input HTML through a UGC sanitising policy
	Logger       *slog.Logger
	Registry     *prometheus.Registry // Metrics registry served on /metrics
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		DBConfig:     db.Config{Driver: "sqlite", DSN: "interlinker.db"},
		StoragePath:  storage.DefaultConfig().BasePath,
		EngineConfig: interlinker.DefaultConfig(),
		CORSEnabled:  true,
	}
}

// NewServer creates a new API server
func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := config.Store
	if store == nil {
		fs, err := storage.New(storage.Config{BasePath: config.StoragePath})
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = fs
	}

	collector := metrics.NewCollector("interlinker", registry)
	engine, err := interlinker.New(config.EngineConfig,
		interlinker.WithLogger(logger),
		interlinker.WithHeuristics(config.Heuristics),
		interlinker.WithRecorder(collector),
	)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	s := &Server{
		db:          database,
		engine:      engine,
		heuristics:  config.Heuristics,
		collector:   collector,
		storage:     store,
		logger:      logger,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}
	if config.Sanitize {
		s.sanitizer = bluemonday.UGCPolicy()
	}

	s.registerRoutes(registry)

	httpMetrics := metrics.NewHTTPMetrics("interlinker", registry)
	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(httpMetrics.Middleware(s.mux)), "interlinker-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("POST /api/inject", s.handleInject)
	s.mux.HandleFunc("GET /api/pages", s.handleListPages)
	s.mux.HandleFunc("POST /api/pages", s.handleSavePage)
	s.mux.HandleFunc("GET /api/pages/{slug}", s.handleGetPage)
	s.mux.HandleFunc("DELETE /api/pages/{slug}", s.handleDeletePage)
	s.mux.HandleFunc("GET /api/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("GET /api/runs/{id}/content", s.handleRunContent)
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// DB returns the underlying database
func (s *Server) DB() *db.DB {
	return s.db
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Skip health checks and metrics scrapes to reduce noise
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.db.CountRuns()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"runs":   count,
		"time":   time.Now(),
	})
}

// InjectRequest is the body of POST /api/inject
type InjectRequest struct {
	HTML     string            `json:"html"`
	Pages    []models.PageInfo `json:"pages,omitempty"`    // Defaults to the page catalog
	Category string            `json:"category,omitempty"` // Catalog filter when pages is empty
	BaseURL  string            `json:"base_url"`
	Slug     string            `json:"slug,omitempty"`   // Document slug, excluded from targets
	Config   json.RawMessage   `json:"config,omitempty"` // Partial engine config over the server defaults
	Save     bool              `json:"save,omitempty"`   // Store the linked HTML
}

// InjectResponse is the result of one injection pass
type InjectResponse struct {
	RunID       string `json:"run_id"`
	ContentPath string `json:"content_path,omitempty"`
	models.InjectionResult
}

// handleInject runs one engine pass and records it as a run
func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	var req InjectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		respondError(w, http.StatusBadRequest, "html is required")
		return
	}

	engine, err := s.engineFor(req.Config)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	docSlug := slug.GenerateWithFallback(req.Slug, "document")
	pages := req.Pages
	if len(pages) == 0 {
		pages, err = s.db.ListPages(req.Category)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
	}
	pages = excludeSelf(pages, req.Slug)

	content := req.HTML
	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}

	start := time.Now()
	result, err := engine.ProcessContent(content, pages, req.BaseURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("injection failed: %v", err))
		return
	}

	run := &models.Run{
		ID:             uuid.NewString(),
		DocumentSlug:   docSlug,
		BaseURL:        req.BaseURL,
		LinksInjected:  result.LinksInjected,
		Distribution:   result.Distribution,
		Injections:     result.InjectionDetails,
		ProcessingTime: time.Since(start).Seconds(),
		CreatedAt:      time.Now().UTC(),
	}

	if req.Save {
		path, err := s.storage.SaveContent(r.Context(), result.HTML, docSlug)
		if err != nil {
			s.logger.Error("failed to save content", "slug", docSlug, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to save content")
			return
		}
		run.ContentPath = path
	}

	if err := s.db.SaveRun(run); err != nil {
		// The pass itself succeeded; the caller still gets the linked HTML
		s.logger.Error("failed to save run", "run_id", run.ID, "error", err)
	}

	respondJSON(w, http.StatusOK, InjectResponse{
		RunID:           run.ID,
		ContentPath:     run.ContentPath,
		InjectionResult: *result,
	})
}

// engineFor returns the server engine, or a new one when the request
// overrides part of the configuration
func (s *Server) engineFor(override json.RawMessage) (*interlinker.Engine, error) {
	if len(override) == 0 || string(override) == "null" {
		return s.engine, nil
	}

	config := s.engine.Config()
	if err := json.Unmarshal(override, &config); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	engine, err := interlinker.New(config,
		interlinker.WithLogger(s.logger),
		interlinker.WithHeuristics(s.heuristics),
		interlinker.WithRecorder(s.collector),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	return engine, nil
}

func excludeSelf(pages []models.PageInfo, docSlug string) []models.PageInfo {
	if docSlug == "" {
		return pages
	}
	kept := make([]models.PageInfo, 0, len(pages))
	for _, p := range pages {
		if p.Slug != docSlug {
			kept = append(kept, p)
		}
	}
	return kept
}

// handleListPages lists catalog pages, optionally filtered by category
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.db.ListPages(r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if pages == nil {
		pages = []models.PageInfo{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pages": pages,
		"count": len(pages),
	})
}

// handleSavePage creates or replaces a catalog page
func (s *Server) handleSavePage(w http.ResponseWriter, r *http.Request) {
	var page models.PageInfo
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&page); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(page.Title) == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if page.Slug == "" {
		page.Slug = slug.Generate(page.Title)
	}
	if page.Slug == "" {
		respondError(w, http.StatusBadRequest, "slug could not be derived from title")
		return
	}

	if err := s.db.SavePage(&page); err != nil {
		s.logger.Error("failed to save page", "slug", page.Slug, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save page")
		return
	}

	respondJSON(w, http.StatusCreated, page)
}

// handleGetPage returns one catalog page
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.db.GetPageBySlug(r.PathValue("slug"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "page not found")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// handleDeletePage removes a catalog page
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeletePage(r.PathValue("slug"))
	if err != nil {
		if strings.Contains(err.Error(), "no page found") {
			respondError(w, http.StatusNotFound, "page not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete page")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "page deleted successfully",
	})
}

// handleListRuns lists recorded runs with pagination
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	// Enforce reasonable limits
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	runs, err := s.db.ListRuns(limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}

	count, _ := s.db.CountRuns()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// handleGetRun returns a run with its injection records
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// handleRunContent serves the stored linked HTML of a run
func (s *Server) handleRunContent(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if run.ContentPath == "" {
		respondError(w, http.StatusNotFound, "content file not available")
		return
	}

	content, err := s.storage.ReadContent(r.Context(), run.ContentPath)
	if err != nil {
		s.logger.Error("failed to read content", "path", run.ContentPath, "error", err)
		respondError(w, http.StatusNotFound, "content file not available")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
