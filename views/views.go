// Package views embeds the HTML templates and static assets of the site.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

// Templates parses every page and partial into one set. Pages are looked up
// by file name, e.g. "students.html".
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// CSS serves the stylesheets under public/css.
func CSS() http.FileSystem {
	sub, err := fs.Sub(publicFS, "public/css")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
