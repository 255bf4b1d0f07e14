package core

import (
	"fmt"
	"net/http"
	"strings"
)

// PageMode selects how the about, services and contact pages answer.
type PageMode string

const (
	ModeText     PageMode = "text"
	ModeTemplate PageMode = "template"
)

func ParsePageMode(s string) (PageMode, error) {
	switch PageMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText:
		return ModeText, nil
	case ModeTemplate:
		return ModeTemplate, nil
	default:
		return ModeText, fmt.Errorf("unknown page mode %q", s)
	}
}

const (
	IndexVariable = "this is a variable text"

	AboutText    = "This is About"
	ServicesText = "This is Services"
	ContactText  = "This is Contact"
)

const htmlContentType = "text/html; charset=utf-8"

// Context is the data handed to a template. A fresh one is built per call.
type Context map[string]string

type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func TextResponse(text string) *Response {
	return &Response{
		Status:      http.StatusOK,
		ContentType: htmlContentType,
		Body:        []byte(text),
	}
}

func HTMLResponse(body []byte) *Response {
	return &Response{
		Status:      http.StatusOK,
		ContentType: htmlContentType,
		Body:        body,
	}
}

type PageFunc func(r *http.Request) (*Response, error)

// Page is one entry of the routing table.
type Page struct {
	Path     string
	Name     string
	Template string
	Handler  PageFunc
}

// PageSet holds the four site pages. It keeps no per-request state, so a
// single value is shared by every request.
type PageSet struct {
	renderer Renderer
	mode     PageMode
}

func NewPageSet(renderer Renderer, mode PageMode) *PageSet {
	if mode == "" {
		mode = ModeText
	}
	return &PageSet{renderer: renderer, mode: mode}
}

func (p *PageSet) Mode() PageMode {
	return p.mode
}

func (p *PageSet) Index(r *http.Request) (*Response, error) {
	ctx := Context{
		"variable": IndexVariable,
	}
	return p.render("index.html", ctx)
}

func (p *PageSet) About(r *http.Request) (*Response, error) {
	return p.variant("about.html", AboutText)
}

func (p *PageSet) Services(r *http.Request) (*Response, error) {
	return p.variant("services.html", ServicesText)
}

func (p *PageSet) Contact(r *http.Request) (*Response, error) {
	return p.variant("contact.html", ContactText)
}

var siteRoutes = []struct {
	path string
	name string
}{
	{path: "/", name: "index"},
	{path: "/about", name: "about"},
	{path: "/services", name: "services"},
	{path: "/contact", name: "contact"},
}

// Pages returns the routing table in a stable order.
func (p *PageSet) Pages() []Page {
	handlers := map[string]PageFunc{
		"index":    p.Index,
		"about":    p.About,
		"services": p.Services,
		"contact":  p.Contact,
	}

	pages := make([]Page, 0, len(siteRoutes))
	for _, route := range siteRoutes {
		pages = append(pages, Page{
			Path:     route.path,
			Name:     route.name,
			Template: route.name + ".html",
			Handler:  handlers[route.name],
		})
	}
	return pages
}

// PageKey returns the cache key of a page served by the site. Anything else,
// including paths that leave the output dir, is ErrNotFound.
func PageKey(path string) (string, error) {
	key := CacheKey(path)
	for _, route := range siteRoutes {
		if route.name == key {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: page %q", ErrNotFound, path)
}

func (p *PageSet) variant(name, text string) (*Response, error) {
	if p.mode == ModeTemplate {
		return p.render(name, nil)
	}
	return TextResponse(text), nil
}

func (p *PageSet) render(name string, ctx Context) (*Response, error) {
	body, err := p.renderer.Render(name, ctx)
	if err != nil {
		return nil, err
	}
	return HTMLResponse(body), nil
}
