// Package templates renders the site's HTML from named templates.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"dconn.dev/portfolio/internal/apperr"
)

//go:embed html/*.html
var files embed.FS

// Template names.
const (
	Home            = "home"
	Projects        = "projects"
	ProjectDetail   = "project_detail"
	ProjectFragment = "project_fragment"
)

// Renderer renders a view model with a named template.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

type page struct {
	tmpl  *template.Template
	entry string
}

// HTMLRenderer renders the embedded html/template set. It is immutable after
// New and safe for concurrent use.
type HTMLRenderer struct {
	pages map[string]page
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("January 2, 2006") },
	"year": func() int { return time.Now().Year() },
}

// New parses the embedded templates.
func New() (*HTMLRenderer, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(files, "html/layout.html", "html/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse base templates: %w", err)
	}

	r := &HTMLRenderer{pages: make(map[string]page)}
	for name, entry := range map[string]string{
		Home:            "layout",
		Projects:        "layout",
		ProjectDetail:   "layout",
		ProjectFragment: ProjectFragment,
	} {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", name, err)
		}
		tmpl, err := clone.ParseFS(files, "html/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = page{tmpl: tmpl, entry: entry}
	}
	return r, nil
}

// Render executes the named template into a buffer and copies it to w, so a
// failed render writes nothing.
func (r *HTMLRenderer) Render(w io.Writer, name string, data any) error {
	p, ok := r.pages[name]
	if !ok {
		return apperr.TemplateFault(name, fmt.Errorf("unknown template"))
	}
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, p.entry, data); err != nil {
		return apperr.TemplateFault(name, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// NotFoundPage returns the static not-found document.
func NotFoundPage() []byte {
	data, err := files.ReadFile("html/404.html")
	if err != nil {
		return []byte("404 page not found")
	}
	return data
}
