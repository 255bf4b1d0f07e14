package core

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type RuntimeContext struct {
	Env string
}

type Router struct {
	config Config
	ctx    RuntimeContext
	pages  map[string]Page
}

var NewRouter = func(config Config, ctx RuntimeContext, pages []Page) http.Handler {
	r := &Router{
		config: config,
		ctx:    ctx,
		pages:  make(map[string]Page, len(pages)),
	}
	for _, p := range pages {
		r.pages[p.Path] = p
	}
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	page, ok := r.pages["/"+strings.Trim(req.URL.Path, "/")]
	if !ok {
		http.NotFound(w, req)
		return
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	key := CacheKey(page.Path)
	if r.cacheEnabled() && r.serveCached(w, req, page, key) {
		return
	}

	resp, err := page.Handler(req)
	if err != nil {
		zerolog.Ctx(req.Context()).Error().Err(err).Str("_page", page.Name).Msg("page handler failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	body := resp.Body
	if r.ctx.Env == "dev" {
		body = InjectLiveReload(body)
	}

	if r.cacheEnabled() && resp.Status == http.StatusOK {
		if err := SaveCachedHTML(r.config, key, body); err != nil {
			zerolog.Ctx(req.Context()).Warn().Err(err).Str("_page", page.Name).Msg("cannot cache page")
		}
	}

	r.write(w, req, page, resp.Status, resp.ContentType, body)
}

func (r *Router) cacheEnabled() bool {
	return r.config.CacheEnabled && r.ctx.Env == "prod"
}

func (r *Router) serveCached(w http.ResponseWriter, req *http.Request, page Page, key string) bool {
	if acceptsGzip(req) {
		if gzPath, ok := GetCachedGzip(r.config, key); ok {
			data, err := os.ReadFile(gzPath)
			if err == nil {
				w.Header().Set("Content-Encoding", "gzip")
				w.Header().Set("Vary", "Accept-Encoding")
				w.Header().Set("X-Homepages-Cache", "HIT")
				r.write(w, req, page, http.StatusOK, htmlContentType, data)
				return true
			}
		}
	}

	html, ok := GetCachedHTML(r.config, key)
	if !ok {
		return false
	}
	w.Header().Set("X-Homepages-Cache", "HIT")
	r.write(w, req, page, http.StatusOK, htmlContentType, html)
	return true
}

func (r *Router) write(w http.ResponseWriter, req *http.Request, page Page, status int, contentType string, body []byte) {
	etag := generateETag(body)
	w.Header().Set("ETag", etag)

	if r.config.DebugHeaders {
		w.Header().Set("X-Homepages-Page", page.Name)
	}

	if status == http.StatusOK && req.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if contentType == "" {
		contentType = htmlContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	if req.Method == http.MethodHead {
		return
	}
	w.Write(body)
}

func generateETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}
