// Package server hosts the sync service: a small HTTP surface that
// reconciles client task collections against the persistent store,
// scoped by an opaque owner token.
package server

import (
	"net/http"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the sync server
type Server struct {
	store *Store
	echo  *echo.Echo
}

// New creates a server backed by the store at dsn (a postgres:// URL
// or a SQLite file path). Schema creation and the legacy key
// migration run before the first request is served.
func New(dsn string) (*Server, error) {
	store, err := OpenStore(dsn)
	if err != nil {
		return nil, err
	}

	s := &Server{store: store}
	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			logger.Info("HTTP request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)
	e.POST("/sync", s.handleSync)

	s.echo = e
}

// Close closes the backing store
func (s *Server) Close() error {
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
