// ABOUTME: Gateway orchestrator that wires the store, AI backend, and HTTP server
// ABOUTME: Manages route registration, session cleanup, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/ai"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/config"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/conversation"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/livekit"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/memory"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// Gateway orchestrates the voice-agent server components. It owns the HTTP
// server and the background session cleanup loop.
type Gateway struct {
	config       *config.Config
	store        store.Store
	backend      ai.Backend
	memories     *memory.Service
	conversation *conversation.Service
	broadcaster  *conversation.Broadcaster
	tokens       *livekit.TokenIssuer
	limiter      *limiterRegistry
	markdown     goldmark.Markdown
	httpServer   *http.Server
	logger       *slog.Logger
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	tokens, err := livekit.New(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.URL)
	if err != nil {
		return nil, fmt.Errorf("initializing livekit token issuer: %w", err)
	}

	backend := ai.NewBackend(ai.Options{
		MastraURL: cfg.AI.MastraURL,
		APIKey:    cfg.AI.MastraAPIKey,
		Logger:    logger.With("component", "ai"),
	})

	mem0 := memory.NewMem0Client(cfg.AI.Mem0URL, cfg.AI.Mem0APIKey)
	memories := memory.NewService(s, mem0, logger.With("component", "memory"))

	broadcaster := conversation.NewBroadcaster(logger.With("component", "broadcaster"))
	convService := conversation.NewService(s, backend, memories, broadcaster, logger.With("component", "conversation"))

	g := &Gateway{
		config:       cfg,
		store:        s,
		backend:      backend,
		memories:     memories,
		conversation: convService,
		broadcaster:  broadcaster,
		tokens:       tokens,
		limiter:      newLimiterRegistry(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		markdown:     goldmark.New(),
		logger:       logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	g.registerRoutes(mux)

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// registerRoutes registers all HTTP routes on the mux. API endpoints are
// wrapped with per-IP rate limiting; the WebSocket endpoint is not.
func (g *Gateway) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("/ws", g.handleWebSocket)

	mux.HandleFunc("POST /api/users", g.rateLimited(g.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", g.rateLimited(g.handleGetUser))

	mux.HandleFunc("POST /api/sessions", g.rateLimited(g.handleCreateSession))
	mux.HandleFunc("GET /api/sessions", g.rateLimited(g.handleListSessions))
	mux.HandleFunc("GET /api/sessions/{id}", g.rateLimited(g.handleGetSession))
	mux.HandleFunc("POST /api/sessions/{id}/end", g.rateLimited(g.handleEndSession))
	mux.HandleFunc("POST /api/sessions/{id}/pause", g.rateLimited(g.handlePauseSession))
	mux.HandleFunc("POST /api/sessions/{id}/resume", g.rateLimited(g.handleResumeSession))
	mux.HandleFunc("GET /api/sessions/{id}/transcript", g.rateLimited(g.handleTranscript))
	mux.HandleFunc("GET /api/sessions/{id}/events", g.rateLimited(g.handleSessionEvents))

	mux.HandleFunc("POST /api/messages", g.rateLimited(g.handlePostMessage))
	mux.HandleFunc("GET /api/memories", g.rateLimited(g.handleListMemories))

	mux.HandleFunc("POST /api/livekit/token", g.rateLimited(g.handleLiveKitToken))
	mux.HandleFunc("GET /api/ai/status", g.rateLimited(g.handleAIStatus))
	mux.HandleFunc("POST /api/ai/entities/extract", g.rateLimited(g.handleExtractEntities))
}

// corsMiddleware allows the configured frontend origin to call the API.
// With no frontend URL configured, cross-origin requests are not allowed.
func (g *Gateway) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := g.config.Server.FrontendURL; origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and the session cleanup loop, blocking until
// the context is canceled. Returns nil on graceful shutdown, or an error if
// the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	go g.cleanupLoop(ctx)

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// cleanupLoop periodically ends sessions that have been active longer than
// the configured timeout.
func (g *Gateway) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(g.config.Sessions.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := g.conversation.RunCleanup(ctx, g.config.Sessions.Timeout)
			if err != nil {
				g.logger.Error("session cleanup failed", "error", err)
				continue
			}
			if count > 0 {
				g.logger.Info("expired sessions ended", "count", count)
			}
		}
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	g.broadcaster.Close()
	g.limiter.Close()

	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// healthResponse is the JSON response for GET /health.
type healthResponse struct {
	Status   string       `json:"status"`
	Database *store.Stats `json:"database,omitempty"`
}

// handleHealth returns the service status and database row counts.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := g.store.Stats(r.Context())
	if err != nil {
		g.logger.Error("failed to collect stats", "error", err)
		g.writeJSON(w, http.StatusInternalServerError, healthResponse{Status: "degraded"})
		return
	}
	g.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: stats})
}
