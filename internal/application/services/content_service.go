package services

import (
	"path/filepath"
	"strings"

	"github.com/servemd/core/internal/domain/entities"
)

// ContentService decides how a resolved file is served: its media type and
// whether it is rendered as markdown. The decision is pure and total — it
// only looks at the file name, never at the filesystem.
type ContentService struct{}

// NewContentService creates a content classifier
func NewContentService() *ContentService {
	return &ContentService{}
}

const fallbackMediaType = "application/octet-stream"

// mediaTypes maps lowercase file extensions (without the dot) to media
// types. Unknown extensions fall back to application/octet-stream.
var mediaTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"mjs":  "text/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"txt":  "text/plain",
	"csv":  "text/csv",

	"md":       "text/markdown",
	"markdown": "text/markdown",

	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"ico":  "image/x-icon",

	"pdf":   "application/pdf",
	"wasm":  "application/wasm",
	"zip":   "application/zip",
	"gz":    "application/gzip",
	"tar":   "application/x-tar",
	"woff":  "font/woff",
	"woff2": "font/woff2",

	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"webm": "video/webm",
}

// sourceExtensions are served as text/plain so browsers display them inline
// instead of offering a download.
var sourceExtensions = map[string]struct{}{
	"c": {}, "cc": {}, "cpp": {}, "h": {}, "hpp": {},
	"go": {}, "rs": {}, "java": {}, "py": {}, "rb": {},
	"sh": {}, "mk": {}, "proto": {}, "rst": {}, "log": {},
	"toml": {}, "yml": {}, "yaml": {}, "ini": {}, "cfg": {},
}

// textFileNames are well-known extensionless files served as text/plain.
var textFileNames = map[string]struct{}{
	".gitattributes": {}, ".gitignore": {}, ".mailmap": {}, ".env": {},
	"AUTHORS": {}, "CODE_OF_CONDUCT": {}, "CONTRIBUTING": {},
	"COPYING": {}, "COPYRIGHT": {}, "LICENSE": {}, "LICENSE-APACHE": {},
	"LICENSE-MIT": {}, "Makefile": {}, "Dockerfile": {},
}

// Classify returns the serving decision for a file path.
func (s *ContentService) Classify(path string) entities.ContentDecision {
	name := filepath.Base(path)

	if _, ok := textFileNames[name]; ok {
		return entities.ContentDecision{MediaType: "text/plain"}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	if ext == "md" || ext == "markdown" {
		return entities.ContentDecision{MediaType: mediaTypes[ext], Markdown: true}
	}

	if _, ok := sourceExtensions[ext]; ok {
		return entities.ContentDecision{MediaType: "text/plain"}
	}

	if mt, ok := mediaTypes[ext]; ok {
		return entities.ContentDecision{MediaType: mt}
	}

	return entities.ContentDecision{MediaType: fallbackMediaType}
}
