package services

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/servemd/core/internal/domain/entities"
)

// pageTemplate is the fixed shell every generated HTML page (markdown
// render, directory listing, error page) is embedded into.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
pre { background: #f4f4f4; padding: 0.8rem; overflow-x: auto; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; }
table { border-collapse: collapse; }
td, th { padding: 0.2rem 0.8rem; text-align: left; }
a { text-decoration: none; }
a:hover { text-decoration: underline; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Title string
	Body  template.HTML
}

// renderPage wraps an already-escaped HTML fragment in the page shell.
func renderPage(title string, body template.HTML) (string, error) {
	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, pageData{Title: title, Body: body}); err != nil {
		return "", fmt.Errorf("%w: page template: %v", entities.ErrRender, err)
	}
	return sb.String(), nil
}
