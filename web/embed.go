// Package web holds the board, plantings and ledger pages and their assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Templates parses every page and partial with funcs available to them.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// Static is rooted at the static directory, ready for http.FS.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
