package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/servemd/core/internal/domain/entities"
	"github.com/servemd/core/internal/infrastructure/config"
	"github.com/servemd/core/internal/infrastructure/logger"
	"github.com/servemd/core/internal/ports"
)

// FileHandler orchestrates a request through the serving pipeline: resolve
// the path, pick a rendering strategy, build the response. All state is per
// request; errors surface to the central error handler.
type FileHandler struct {
	resolver     ports.PathResolver
	classifier   ports.ContentClassifier
	markdown     ports.MarkdownRenderer
	lister       ports.DirectoryLister
	indexFile    string
	extraHeaders [][2]string
	logger       *logger.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(
	resolver ports.PathResolver,
	classifier ports.ContentClassifier,
	markdown ports.MarkdownRenderer,
	lister ports.DirectoryLister,
	cfg config.ServeConfig,
	appLogger *logger.Logger,
) (*FileHandler, error) {
	pairs, err := cfg.HeaderPairs()
	if err != nil {
		return nil, err
	}

	return &FileHandler{
		resolver:     resolver,
		classifier:   classifier,
		markdown:     markdown,
		lister:       lister,
		indexFile:    cfg.IndexFile,
		extraHeaders: pairs,
		logger:       appLogger.WithComponent("handler"),
	}, nil
}

// Serve handles a single request for a path under the server root.
func (h *FileHandler) Serve(c echo.Context) error {
	req := c.Request()

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		c.Response().Header().Set(echo.HeaderAllow, "GET, HEAD")
		return fmt.Errorf("%w: %s", entities.ErrMethodNotAllowed, req.Method)
	}

	h.logger.Debugw("Serving request", "method", req.Method, "path", req.URL.Path)

	// Resolution works on the path as received from the wire; the resolver
	// owns percent-decoding.
	target, err := h.resolver.Resolve(req.Context(), req.RequestURI)
	if err != nil {
		return err
	}

	switch target.Kind {
	case entities.TargetDirectory:
		return h.serveDirectory(c, target)
	case entities.TargetFile:
		return h.serveFile(c, target)
	default:
		return entities.ErrNotFound
	}
}

func (h *FileHandler) serveDirectory(c echo.Context, target *entities.ResolvedTarget) error {
	urlPath := c.Request().URL.Path
	if urlPath == "" {
		urlPath = "/"
	}

	// Relative links inside listings and index pages only resolve from a
	// slashed directory URL, so redirect "/docs" to "/docs/" first.
	if !strings.HasSuffix(urlPath, "/") {
		loc := urlPath + "/"
		if q := c.Request().URL.RawQuery; q != "" {
			loc += "?" + q
		}
		return c.Redirect(http.StatusFound, loc)
	}

	if h.indexFile != "" {
		if idx := h.findIndexFile(target.Path); idx != nil {
			return h.serveFile(c, idx)
		}
	}

	isRoot := target.Path == h.resolver.Root()
	page, err := h.lister.List(c.Request().Context(), target.Path, urlPath, isRoot)
	if err != nil {
		return err
	}

	return h.sendHTML(c, page)
}

// findIndexFile reports whether the configured index file exists as a
// regular file in dir.
func (h *FileHandler) findIndexFile(dir string) *entities.ResolvedTarget {
	path := filepath.Join(dir, h.indexFile)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return &entities.ResolvedTarget{
		Kind:    entities.TargetFile,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

func (h *FileHandler) serveFile(c echo.Context, target *entities.ResolvedTarget) error {
	decision := h.classifier.Classify(target.Path)

	if decision.Markdown {
		page, err := h.markdown.RenderFile(c.Request().Context(), target.Path)
		if err != nil {
			return err
		}
		return h.sendHTML(c, page)
	}

	f, err := os.Open(target.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: file disappeared", entities.ErrNotFound)
		}
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h.applyExtraHeaders(c)
	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.FormatInt(target.Size, 10))

	if c.Request().Method == http.MethodHead {
		header.Set(echo.HeaderContentType, decision.MediaType)
		return c.NoContent(http.StatusOK)
	}

	return c.Stream(http.StatusOK, decision.MediaType, f)
}

func (h *FileHandler) sendHTML(c echo.Context, page string) error {
	h.applyExtraHeaders(c)
	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.Itoa(len(page)))

	if c.Request().Method == http.MethodHead {
		header.Set(echo.HeaderContentType, "text/html")
		return c.NoContent(http.StatusOK)
	}

	return c.Blob(http.StatusOK, "text/html", []byte(page))
}

func (h *FileHandler) applyExtraHeaders(c echo.Context) {
	header := c.Response().Header()
	for _, p := range h.extraHeaders {
		header.Set(p[0], p[1])
	}
}
