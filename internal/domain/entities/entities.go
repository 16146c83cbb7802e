package entities

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrMalformedPath    = errors.New("malformed request path")
	ErrForbiddenPath    = errors.New("forbidden request path")
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrRender           = errors.New("render failed")
)

// TargetKind classifies what a request path resolved to on disk.
type TargetKind string

const (
	TargetFile      TargetKind = "file"
	TargetDirectory TargetKind = "directory"
	TargetMissing   TargetKind = "missing"
)

// ResolvedTarget is the outcome of resolving a request path against the
// server root. Path is the canonical absolute filesystem path and is empty
// for missing targets. Created per request, never cached.
type ResolvedTarget struct {
	Kind    TargetKind `json:"kind"`
	Path    string     `json:"-"`
	Size    int64      `json:"size,omitempty"`
	ModTime time.Time  `json:"mod_time,omitempty"`
}

// DirectoryEntry is a single child of a listed directory, read from the
// filesystem at listing time.
type DirectoryEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// ContentDecision says how a file target should be served: its media type
// and whether it should be rendered as markdown instead of served verbatim.
type ContentDecision struct {
	MediaType string `json:"media_type"`
	Markdown  bool   `json:"markdown"`
}
