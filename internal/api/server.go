package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cineboard/internal/config"
	"cineboard/internal/logging"
	"cineboard/internal/services"
)

const requestIDHeader = "X-Request-ID"

// Server exposes the orchestrator over HTTP.
type Server struct {
	bind   string
	token  string
	logger *slog.Logger
	orch   Orchestrator
	engine *gin.Engine

	listener net.Listener
	server   *http.Server
}

// NewServer builds the gin engine and HTTP server for cfg.Paths.APIBind.
func NewServer(cfg *config.Config, orch Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api"),
		orch:   orch,
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestContext())

	r.GET("/api/health", s.handleHealth)

	authed := r.Group("/api", s.authenticate())
	{
		authed.GET("/session", s.handleSession)
		authed.POST("/storyboards", s.handleGenerate)
		authed.POST("/scenes/:index/retry", s.handleRetry)
		authed.POST("/reset", s.handleReset)
		authed.PUT("/mode", s.handleMode)
		authed.PUT("/input", s.handleInput)
		authed.GET("/events", s.handleEvents)
	}
	return r
}

// Handler returns the routed handler; tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return fmt.Errorf("api listen: %w", services.Wrap(services.ErrConfiguration, "api", "listen", "paths.api_bind is empty", nil))
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
}

// requestContext stamps a correlation id on the request context and logs the
// request once it completes.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))

		started := time.Now()
		c.Next()

		logger := logging.WithContext(c.Request.Context(), s.logger)
		logger.Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(started)),
		)
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		presented := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if presented == "" {
			presented = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
			abortError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid bearer token"))
			return
		}
		c.Next()
	}
}
