package controlhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"keel/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server exposes the daemon control surface over HTTP.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the control server dependencies.
type ServerConfig struct {
	Addr   string
	Daemon DaemonController
	Events EventReader
}

// NewServer builds the control HTTP server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Daemon == nil {
		return nil, errors.New("control http server requires a daemon")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9971"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	controlRouter := NewRouter(cfg.Daemon, cfg.Events)
	controlRouter.Register(router.Group("/api/control"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
