package core

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/sprig/v3"
	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	minjs "github.com/tdewolff/minify/v2/js"
)

type Renderer interface {
	Render(name string, data Context) ([]byte, error)
}

// TemplateRenderer parses every .html file of a file system into a single
// template set, so pages can pull in shared partials by name.
type TemplateRenderer struct {
	fsys   fs.FS
	env    string
	funcs  template.FuncMap
	assets *AssetMinifier
	min    *minify.M
	lock   sync.RWMutex
	set    *template.Template
	parsed []string
}

func NewTemplateRenderer(fsys fs.FS, env string, cfg Config) (*TemplateRenderer, error) {
	assets := NewAssetMinifier(env, cfg.PublicDir, cfg.OutputDir)

	funcs := sprig.HtmlFuncMap()
	for name, fn := range SiteTemplateFuncs(assets) {
		funcs[name] = fn
	}

	r := &TemplateRenderer{
		fsys:   fsys,
		env:    env,
		funcs:  funcs,
		assets: assets,
	}

	if env == "prod" {
		m := minify.New()
		m.AddFunc("text/css", mincss.Minify)
		m.AddFunc("application/javascript", minjs.Minify)
		m.Add("text/html", &minhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		r.min = m
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses the template set and forgets minified asset URLs. On
// failure the previous set stays active.
func (r *TemplateRenderer) Reload() error {
	var files []string
	err := fs.WalkDir(r.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk templates: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no .html files found", ErrTemplateNotFound)
	}

	set, err := template.New("").Funcs(r.funcs).ParseFS(r.fsys, files...)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	sort.Strings(files)

	r.lock.Lock()
	r.set = set
	r.parsed = files
	r.lock.Unlock()

	r.assets.Reset()
	return nil
}

func (r *TemplateRenderer) Render(name string, data Context) ([]byte, error) {
	r.lock.RLock()
	set := r.set
	r.lock.RUnlock()

	tmpl := set.Lookup(name)
	if tmpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string(data)); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	raw := buf.Bytes()
	if r.min == nil {
		return raw, nil
	}

	var out bytes.Buffer
	if err := r.min.Minify("text/html", &out, bytes.NewReader(raw)); err != nil {
		// the unminified page is still correct
		return raw, nil
	}
	return out.Bytes(), nil
}

// Files lists the template files of the active set.
func (r *TemplateRenderer) Files() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return append([]string(nil), r.parsed...)
}
