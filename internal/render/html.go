package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// ConfirmPage asks the user to approve a pending action.
type ConfirmPage struct {
	Title   string
	Text    string // names the book the action applies to
	Confirm string
	Cancel  string
	Action  string // form target
}

// HTML renders the bookshelf page and confirmation dialogs.
type HTML struct {
	tmpl *template.Template
}

func NewHTML() (*HTML, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		// card fields are escaped by Project
		"escaped": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTML{tmpl: tmpl}, nil
}

func (h *HTML) Page(w io.Writer, v View) error {
	return h.tmpl.ExecuteTemplate(w, "page.html", v)
}

func (h *HTML) Confirm(w io.Writer, p ConfirmPage) error {
	return h.tmpl.ExecuteTemplate(w, "confirm.html", p)
}
