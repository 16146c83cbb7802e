package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/servemd/core/internal/domain/entities"
	"github.com/servemd/core/internal/infrastructure/logger"
)

// MarkdownService renders markdown files into complete HTML pages using the
// fixed page template. Rendering is best-effort: malformed markdown still
// produces HTML, only I/O can fail.
type MarkdownService struct {
	md     goldmark.Markdown
	logger *logger.Logger
}

// NewMarkdownService creates a markdown renderer
func NewMarkdownService(appLogger *logger.Logger) *MarkdownService {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithXHTML(),
		),
		goldmark.WithExtensions(
			extension.GFM,
		),
	)

	return &MarkdownService{
		md:     md,
		logger: appLogger.WithComponent("markdown"),
	}
}

// RenderFile reads the markdown source at path and returns a full HTML
// document. The page title is the file name.
func (s *MarkdownService) RenderFile(ctx context.Context, path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		s.logger.Errorw("Reading markdown source failed", "error", err)
		return "", fmt.Errorf("%w: reading markdown source: %v", entities.ErrRender, err)
	}

	var body bytes.Buffer
	if err := s.md.Convert(src, &body); err != nil {
		return "", fmt.Errorf("%w: converting markdown: %v", entities.ErrRender, err)
	}

	// goldmark output is trusted page content, not user input to escape.
	return renderPage(filepath.Base(path), template.HTML(body.String()))
}
