package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	httpAdapters "github.com/servemd/core/internal/adapters/http"
	"github.com/servemd/core/internal/application/services"
	"github.com/servemd/core/internal/domain/entities"
	"github.com/servemd/core/internal/infrastructure/config"
	"github.com/servemd/core/internal/infrastructure/logger"
)

// Server represents the HTTP file server plus the optional ops listener.
type Server struct {
	echo   *echo.Echo
	ops    *echo.Echo
	config *config.Config
	logger *logger.Logger
}

// New creates a new server instance wired to the serving pipeline.
func New(cfg *config.Config, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Build the pipeline leaf-first.
	resolver, err := services.NewResolverService(cfg.Serve.Root, appLogger)
	if err != nil {
		return nil, err
	}
	classifier := services.NewContentService()
	markdown := services.NewMarkdownService(appLogger)
	lister := services.NewListingService(appLogger)

	fileHandler, err := httpAdapters.NewFileHandler(resolver, classifier, markdown, lister, cfg.Serve, appLogger)
	if err != nil {
		return nil, err
	}

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
	}

	server.setupMiddleware()

	// Every path under the root is the file handler's; Serve rejects
	// non-GET/HEAD itself so all methods route to it.
	e.Any("/", fileHandler.Serve)
	e.Any("/*", fileHandler.Serve)

	if cfg.Metrics.Enabled {
		server.setupOps()
	}

	return server, nil
}

// Start starts the HTTP server and, when enabled, the ops listener.
func (s *Server) Start(address string) error {
	if s.ops != nil {
		opsAddr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Metrics.Port)
		go func() {
			if err := s.ops.Start(opsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Ops listener failed", "error", err)
			}
		}()
	}

	s.logger.Info("Starting server", "address", address, "root", s.config.Serve.Root)

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	if s.ops != nil {
		if err := s.ops.Shutdown(ctx); err != nil {
			s.logger.Error("Ops listener shutdown failed", "error", err)
		}
	}
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server act as a plain http.Handler, which keeps it
// testable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// customErrorHandler translates pipeline errors into short plain-text
// responses. Bodies never include resolved filesystem paths.
func customErrorHandler(appLogger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError

		switch {
		case errors.Is(err, entities.ErrMalformedPath):
			code = http.StatusBadRequest
		case errors.Is(err, entities.ErrForbiddenPath):
			code = http.StatusForbidden
		case errors.Is(err, entities.ErrNotFound):
			code = http.StatusNotFound
		case errors.Is(err, entities.ErrMethodNotAllowed):
			code = http.StatusMethodNotAllowed
		case errors.Is(err, entities.ErrRender):
			code = http.StatusInternalServerError
		default:
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
		}

		if code == http.StatusInternalServerError {
			appLogger.Error("Internal server error", "error", err)
		}

		if c.Response().Committed {
			return
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.String(code, errorBody(code))
		}
		if sendErr != nil {
			appLogger.Error("Error sending response", "error", sendErr)
		}
	}
}

// errorBody returns the short, generic body for an error status.
func errorBody(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad request\n"
	case http.StatusForbidden:
		return "forbidden\n"
	case http.StatusNotFound:
		return "not found\n"
	case http.StatusMethodNotAllowed:
		return "method not allowed\n"
	default:
		return http.StatusText(code) + "\n"
	}
}
