// Package views renders the site's HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"inkpost/app/forms"
	"inkpost/app/models"
)

//go:embed templates/*.html
var files embed.FS

// Page names accepted by Render.
const (
	PageIndex    = "index"
	PagePost     = "post"
	PageMakePost = "make-post"
	PageLogin    = "login"
	PageRegister = "register"
	PageAbout    = "about"
	PageContact  = "contact"
)

var pages = []string{PageIndex, PagePost, PageMakePost, PageLogin, PageRegister, PageAbout, PageContact}

// Data is passed to every template.
type Data struct {
	Title       string
	CurrentUser *models.User
	Flashes     []string
	CSRFToken   string
	CSRFField   string
	Form        interface{}
	Errors      forms.Errors
	Posts       []*models.Post
	Post        *models.Post
	IsEdit      bool
}

// LoggedIn reports whether a user is signed in.
func (d *Data) LoggedIn() bool {
	return d.CurrentUser != nil
}

// IsAdmin reports whether the signed-in user is the administrator.
func (d *Data) IsAdmin() bool {
	return d.CurrentUser != nil && d.CurrentUser.IsAdmin
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	// Post bodies are authored by the administrator as HTML.
	"html": func(s string) template.HTML { return template.HTML(s) },
}

// New parses every page against the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render writes page with status. Nothing is written if execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *Data) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
