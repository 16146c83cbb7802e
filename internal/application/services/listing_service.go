package services

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/servemd/core/internal/domain/entities"
	"github.com/servemd/core/internal/infrastructure/logger"
)

// ListingService renders directory index pages. Entry order is a contract:
// directories first, then case-insensitive lexicographic by name.
type ListingService struct {
	logger *logger.Logger
}

// NewListingService creates a directory lister
func NewListingService(appLogger *logger.Logger) *ListingService {
	return &ListingService{
		logger: appLogger.WithComponent("listing"),
	}
}

var listingTemplate = template.Must(template.New("listing").Parse(`<h1>Index of {{.Heading}}</h1>
<table>
{{- if .Parent}}
<tr><td><a href="{{.Parent}}">..</a></td><td></td></tr>
{{- end}}
{{- range .Entries}}
<tr><td><a href="{{.Href}}">{{.Label}}</a></td><td>{{.Size}}</td></tr>
{{- end}}
</table>
`))

type listingEntry struct {
	Label string
	Href  string
	Size  string
}

type listingData struct {
	Heading string
	Parent  string
	Entries []listingEntry
}

// List enumerates the immediate children of dirPath and renders the index
// page. requestPath is the decoded request path the page was reached by and
// is used to build entry hrefs; isRoot suppresses the parent link.
func (s *ListingService) List(ctx context.Context, dirPath, requestPath string, isRoot bool) (string, error) {
	dirents, err := os.ReadDir(dirPath)
	if err != nil {
		s.logger.Errorw("Reading directory failed", "error", err)
		return "", fmt.Errorf("%w: reading directory: %v", entities.ErrRender, err)
	}

	entries := make([]entities.DirectoryEntry, 0, len(dirents))
	for _, d := range dirents {
		e := entities.DirectoryEntry{Name: d.Name(), IsDir: d.IsDir()}
		if !e.IsDir {
			if info, err := d.Info(); err == nil {
				e.Size = info.Size()
			}
		}
		entries = append(entries, e)
	}

	sortEntries(entries)

	base := strings.TrimSuffix(requestPath, "/")

	data := listingData{Heading: requestPath}
	if !isRoot {
		data.Parent = "../"
	}
	for _, e := range entries {
		le := listingEntry{
			Label: e.Name,
			Href:  base + "/" + url.PathEscape(e.Name),
		}
		if e.IsDir {
			le.Label += "/"
			le.Href += "/"
		} else {
			le.Size = fmt.Sprintf("%d", e.Size)
		}
		data.Entries = append(data.Entries, le)
	}

	var sb strings.Builder
	if err := listingTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: listing template: %v", entities.ErrRender, err)
	}

	return renderPage("Index of "+requestPath, template.HTML(sb.String()))
}

// sortEntries orders directories before files, then case-insensitively by
// name. Names equal under case folding fall back to a byte-wise compare so
// the order stays deterministic.
func sortEntries(entries []entities.DirectoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		ni, nj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if ni != nj {
			return ni < nj
		}
		return entries[i].Name < entries[j].Name
	})
}
