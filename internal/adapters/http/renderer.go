package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer renders the embedded HTML views for echo
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"statusClass": func(status string) string {
			if status == StatusOnline {
				return "online"
			}
			return "error"
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// Render implements echo.Renderer
func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
