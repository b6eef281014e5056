// Package web bundles the HTML templates and the helpers they call.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/taskmanager-dev/taskmanager/internal/validation"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var files embed.FS

// Comments are user input: goldmark escapes raw HTML unless WithUnsafe is
// set, and it is not.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

func Markdown(source string) template.HTML {
	var buf bytes.Buffer

	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}

	return template.HTML(buf.String())
}

func errorsFor(errs *validation.Errors, field string) []string {
	return errs.For(field)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown":   Markdown,
		"errorsFor":  errorsFor,
		"formatTime": formatTime,
	}
}

// Templates parses every page template. Page templates are addressed by file
// name, e.g. "project.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(files, "templates/*.html")
}
