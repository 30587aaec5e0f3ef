package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/docdash/internal/core/ports/driving"

	// Registers the OpenAPI document served at /swagger/doc.json
	_ "github.com/custodia-labs/docdash/docs"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck is a named backend probed by /ready
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	// Services
	docService  driving.DocumentService
	chatService driving.ChatService

	// Infrastructure
	checks []ReadinessCheck

	allowedOrigins []string
	maxUploadBytes int64
	upgrader       websocket.Upgrader
	now            func() time.Time
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	MaxUploadBytes int64
	Logger         *slog.Logger
	Now            func() time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 10 << 20,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	docService driving.DocumentService,
	chatService driving.ChatService,
	checks ...ReadinessCheck,
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		docService:     docService,
		chatService:    chatService,
		checks:         checks,
		allowedOrigins: cfg.AllowedOrigins,
		maxUploadBytes: maxUpload,
		now:            now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	s.setupRoutes()

	// Outermost first: recovery, request logging, CORS
	s.handler = NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Document endpoints
	s.router.HandleFunc("GET /api/documents", s.handleListDocuments)
	s.router.HandleFunc("POST /api/documents", s.handleUploadDocument)
	s.router.HandleFunc("POST /api/upload-csv", s.handleUploadCSV)
	s.router.HandleFunc("POST /api/documents/bulk-delete", s.handleBulkDelete)
	s.router.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("GET /api/documents/{id}/content", s.handleGetContent)
	s.router.HandleFunc("PATCH /api/documents/{id}", s.handleRenameDocument)
	s.router.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)

	// Label endpoints
	s.router.HandleFunc("GET /api/labels", s.handleListLabels)
	s.router.HandleFunc("POST /api/documents/{id}/labels", s.handleAddLabel)
	s.router.HandleFunc("DELETE /api/documents/{id}/labels/{label}", s.handleRemoveLabel)

	// Chat endpoints
	s.router.HandleFunc("POST /api/chat/{documentId}", s.handleChat)
	s.router.HandleFunc("GET /api/chat/{documentId}/history", s.handleChatHistory)
	s.router.HandleFunc("DELETE /api/chat/{documentId}/history", s.handleClearChatHistory)
	s.router.HandleFunc("GET /api/chat/{documentId}/ws", s.handleChatWebSocket)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
