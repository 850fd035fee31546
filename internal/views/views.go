// Package views renders the HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/isdelr/sample-app/internal/models"
)

// BaseTitle prefixes every page title.
const BaseTitle = "Sample App"

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Data is what every page template receives.
type Data struct {
	Title       string
	CurrentUser *models.User
	Flash       map[string]string
	Errors      []string
	Content     any
}

// FullTitle is "Sample App | Title", or just the base title.
func (d *Data) FullTitle() string {
	if d.Title == "" {
		return BaseTitle
	}
	return BaseTitle + " | " + d.Title
}

// IsCurrentUser reports whether id belongs to the signed-in user.
func (d *Data) IsCurrentUser(id string) bool {
	return d.CurrentUser != nil && d.CurrentUser.ID == id
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"pluralize": Pluralize,
	"timeAgo": func(t time.Time) string {
		return humanize.Time(t)
	},
}

// New parses the layout, partials and pages.
func New() (*Renderer, error) {
	base, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		tmpl, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = tmpl
	}
	return r, nil
}

// Render executes the named page into w with the given status. Output is
// buffered so a template error never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *Data) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and friends under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Pluralize reads like "1 micropost" or "2 microposts".
func Pluralize(n int, singular string) string {
	word := singular
	if n != 1 {
		word += "s"
	}
	return strconv.Itoa(n) + " " + word
}
