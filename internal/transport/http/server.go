package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	feedService "github.com/reshetovitsme/fn-news-bridge/internal/modules/feed/service"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/config"
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/metrics"
	sloghttp "github.com/samber/slog-http"
)

// Server serves the per-mode RSS feeds, health and metrics
type Server struct {
	cfg         *config.Config
	feedService *feedService.Service
	gatherer    prometheus.Gatherer
	logger      *slog.Logger

	mu     sync.Mutex
	server *http.Server
}

// New creates a new HTTP server
func New(cfg *config.Config, feedService *feedService.Service, gatherer prometheus.Gatherer) *Server {
	return &Server{
		cfg:         cfg,
		feedService: feedService,
		gatherer:    gatherer,
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the routed handler wrapped in the logging middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /rss/{mode}", s.handleRSSFeed)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.gatherer))
	}
	mux.HandleFunc("GET /{$}", s.handleRoot)

	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) handleRSSFeed(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(r.PathValue("mode"))
	if err != nil {
		http.Error(w, "Unknown mode", http.StatusNotFound)
		return
	}

	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	feed, err := s.feedService.GenerateFeed(mode, baseURL)
	if errors.Is(err, sharedErrors.ErrSnapshotNotFound) {
		http.Error(w, "No snapshot for this mode yet", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Error generating feed", "mode", mode, "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cacheSeconds()))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

// cacheSeconds keeps readers from polling faster than the bridge itself
func (s *Server) cacheSeconds() int {
	if s.cfg.UpdateInterval > 0 {
		return s.cfg.UpdateInterval
	}
	return 300
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	links := ""
	for _, mode := range s.cfg.EnabledModes() {
		links += fmt.Sprintf(`        <li><a href="/rss/%s"><code>/rss/%s</code></a></li>
`, mode, mode)
	}

	html := `<!DOCTYPE html>
<html>
<head>
    <title>Fortnite News Bridge</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>Fortnite News Bridge</h1>
    <div class="info">
        <p>RSS feeds of the last seen Fortnite news, one per mode:</p>
        <ul>
` + links + `        </ul>
    </div>
    <p><a href="/health">Health Check</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
