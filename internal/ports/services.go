package ports

import (
	"context"

	"github.com/servemd/core/internal/domain/entities"
)

// PathResolver interface for resolving raw request paths against the server root
type PathResolver interface {
	Resolve(ctx context.Context, rawPath string) (*entities.ResolvedTarget, error)
	Root() string
}

// ContentClassifier interface for deciding how a resolved file is served
type ContentClassifier interface {
	Classify(path string) entities.ContentDecision
}

// MarkdownRenderer interface for rendering a markdown file into a full HTML page
type MarkdownRenderer interface {
	RenderFile(ctx context.Context, path string) (string, error)
}

// DirectoryLister interface for rendering a directory index page
type DirectoryLister interface {
	List(ctx context.Context, dirPath, requestPath string, isRoot bool) (string, error)
}
