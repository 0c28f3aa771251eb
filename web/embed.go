// Package web embeds the storefront templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
)

//go:embed templates static
var content embed.FS

// Static serves /static from the embedded tree.
func Static() http.FileSystem {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Engine builds the html view engine. reload re-reads templates from dir on
// every render, for local template work.
func Engine(reload bool, dir string) *html.Engine {
	var engine *html.Engine
	if reload && dir != "" {
		engine = html.New(dir, ".html")
		engine.Reload(true)
	} else {
		sub, err := fs.Sub(content, "templates")
		if err != nil {
			panic(err)
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
	}
	engine.AddFuncMap(funcs)
	return engine
}

var funcs = map[string]any{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
	"lower": strings.ToLower,
	// field tolerates a missing Errors entry in the view data.
	"field": func(errs any, name string) string {
		m, _ := errs.(map[string]string)
		return m[name]
	},
}
