package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/servemd/core/internal/domain/entities"
	"github.com/servemd/core/internal/infrastructure/logger"
)

func renderMarkdown(t *testing.T, name, source string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewMarkdownService(logger.NewNop())
	page, err := s.RenderFile(context.Background(), path)
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	return page
}

func TestRenderFileBasics(t *testing.T) {
	page := renderMarkdown(t, "doc.md", "# Title\n\nHello **world**")

	if !strings.Contains(page, "<h1") || !strings.Contains(page, "Title</h1>") {
		t.Errorf("missing h1 heading in output:\n%s", page)
	}
	if !strings.Contains(page, "<strong>world</strong>") {
		t.Errorf("missing strong emphasis in output:\n%s", page)
	}
	if !strings.Contains(page, "<title>doc.md</title>") {
		t.Errorf("page title should be the file name:\n%s", page)
	}
	if !strings.Contains(page, "<!DOCTYPE html>") {
		t.Error("output should be a complete HTML document")
	}
}

func TestRenderFileGFMTable(t *testing.T) {
	page := renderMarkdown(t, "table.md", "| a | b |\n| --- | --- |\n| 1 | 2 |\n")

	if !strings.Contains(page, "<table>") {
		t.Errorf("missing table in output:\n%s", page)
	}
}

func TestRenderFileCodeBlock(t *testing.T) {
	page := renderMarkdown(t, "code.md", "```\nfmt.Println(\"hi\")\n```\n")

	if !strings.Contains(page, "<pre>") {
		t.Errorf("missing pre block in output:\n%s", page)
	}
}

func TestRenderFileMalformedMarkdownDegrades(t *testing.T) {
	// Markdown has no strict grammar; rendering must not fail.
	page := renderMarkdown(t, "broken.md", "[unclosed **bold _mixed\n\n####### too deep")

	if page == "" {
		t.Error("expected best-effort output")
	}
}

func TestRenderFileMissingSource(t *testing.T) {
	s := NewMarkdownService(logger.NewNop())

	_, err := s.RenderFile(context.Background(), filepath.Join(t.TempDir(), "gone.md"))
	if !errors.Is(err, entities.ErrRender) {
		t.Errorf("err = %v, want ErrRender", err)
	}
}
