package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/servemd/core/internal/domain/entities"
	"github.com/servemd/core/internal/infrastructure/logger"
)

// ResolverService turns raw request paths into safe filesystem targets
// confined to the server root. The order is fixed: percent-decode, reject
// traversal segments and control bytes, join onto the root, canonicalize,
// verify the canonical path is still under the root.
type ResolverService struct {
	root   string
	logger *logger.Logger
}

// NewResolverService creates a resolver rooted at dir. The directory must
// exist; its canonical absolute path becomes the server root for the
// process lifetime.
func NewResolverService(dir string, appLogger *logger.Logger) (*ResolverService, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", dir, err)
	}

	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", dir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", dir)
	}

	return &ResolverService{
		root:   root,
		logger: appLogger.WithComponent("resolver"),
	}, nil
}

// Root returns the canonical server root.
func (s *ResolverService) Root() string {
	return s.root
}

// Resolve maps a raw request path (as received, percent-encoded, possibly
// carrying a query string) to a classified filesystem target.
func (s *ResolverService) Resolve(ctx context.Context, rawPath string) (*entities.ResolvedTarget, error) {
	// The query string is not part of the filesystem path.
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		rawPath = rawPath[:i]
	}

	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", entities.ErrMalformedPath, rawPath)
	}
	if !utf8.ValidString(decoded) {
		return nil, fmt.Errorf("%w: not valid UTF-8", entities.ErrMalformedPath)
	}

	// Traversal and control-byte checks run on the DECODED path. Checking
	// before decoding would let %2e%2e through.
	if err := validateDecodedPath(decoded); err != nil {
		s.logger.LogSecurityEvent("path_rejected", rawPath, "")
		return nil, err
	}

	joined := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(decoded, "/")))

	// Canonicalize so symlinks cannot smuggle the target outside the root.
	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return &entities.ResolvedTarget{Kind: entities.TargetMissing}, nil
		}
		return nil, fmt.Errorf("canonicalizing path: %w", err)
	}

	if canonical != s.root && !strings.HasPrefix(canonical, s.root+string(filepath.Separator)) {
		s.logger.LogSecurityEvent("symlink_escape", rawPath, "")
		return nil, fmt.Errorf("%w: outside server root", entities.ErrForbiddenPath)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		if os.IsNotExist(err) {
			return &entities.ResolvedTarget{Kind: entities.TargetMissing}, nil
		}
		return nil, fmt.Errorf("stat: %w", err)
	}

	if info.IsDir() {
		return &entities.ResolvedTarget{
			Kind:    entities.TargetDirectory,
			Path:    canonical,
			ModTime: info.ModTime(),
		}, nil
	}

	// A trailing slash promises a directory; a file is not one.
	if strings.HasSuffix(decoded, "/") {
		return &entities.ResolvedTarget{Kind: entities.TargetMissing}, nil
	}

	return &entities.ResolvedTarget{
		Kind:    entities.TargetFile,
		Path:    canonical,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func validateDecodedPath(decoded string) error {
	for _, seg := range strings.Split(decoded, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: parent-directory segment", entities.ErrForbiddenPath)
		}
	}
	for i := 0; i < len(decoded); i++ {
		if decoded[i] < 0x20 || decoded[i] == 0x7f {
			return fmt.Errorf("%w: control byte in path", entities.ErrForbiddenPath)
		}
	}
	return nil
}
