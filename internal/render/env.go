package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
)

// funcMap is the helper set every page template can use.
func funcMap() template.FuncMap {
	md := goldmark.New()
	return template.FuncMap{
		"markdown": func(src string) (template.HTML, error) {
			var buf bytes.Buffer
			if err := md.Convert([]byte(src), &buf); err != nil {
				return "", fmt.Errorf("render markdown: %w", err)
			}
			return template.HTML(buf.String()), nil
		},
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"year":     func() int { return time.Now().Year() },
	}
}

// loadTemplate parses one page template from the template root.
func (r *Renderer) loadTemplate(filename string) (*template.Template, error) {
	path := filepath.Join(r.TemplateDir, filename)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template %s: %w", filename, err)
	}
	tmpl, err := template.New(filename).Funcs(funcMap()).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", filename, err)
	}
	return tmpl, nil
}
