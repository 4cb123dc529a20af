// Package web provides the embedded page templates and stylesheet for Lector.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates static
var assets embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(assets, "templates/*.html")
}

// StaticFS returns the embedded static assets with "static" as the root
// (e.g., "style.css" not "static/style.css").
func StaticFS() (fs.FS, error) {
	return fs.Sub(assets, "static")
}
