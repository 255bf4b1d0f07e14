package homepages

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-barry/homepages/core"
)

type mockReloader struct{}

func (m *mockReloader) BroadcastReload() {}
func (m *mockReloader) Handler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("reload ok"))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "homepages.config.yml")
	config := "outputDir: " + filepath.Join(dir, "out") + "\n" +
		"publicDir: " + filepath.Join(dir, "public") + "\n" + body
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func boolPtr(b bool) *bool {
	return &b
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDetectMimeType(t *testing.T) {
	tests := map[string]string{
		"file.css":     "text/css",
		"script.js":    "application/javascript",
		"image.webp":   "image/webp",
		"icon.svg":     "image/svg+xml",
		"photo.png":    "image/png",
		"photo.jpeg":   "image/jpeg",
		"font.woff":    "font/woff",
		"font.woff2":   "font/woff2",
		"favicon.ico":  "image/x-icon",
		"robots.txt":   "text/plain; charset=utf-8",
		"unknown.file": "application/octet-stream",
	}

	for filename, expected := range tests {
		t.Run(filename, func(t *testing.T) {
			if mime := detectMimeType(filename); mime != expected {
				t.Errorf("got %s, want %s", mime, expected)
			}
		})
	}
}

func TestAcceptsGzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	if !acceptsGzip(req) {
		t.Error("expected true for Accept-Encoding with gzip")
	}

	req.Header.Set("Accept-Encoding", "br")
	if acceptsGzip(req) {
		t.Error("expected false for Accept-Encoding without gzip")
	}
}

func TestServeFileWithHeaders(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "test.bin")
	content := "Hello, homepages!"
	_ = os.WriteFile(filePath, []byte(content), 0644)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/static/test.bin", nil)

	serveFileWithHeaders(rec, req, filePath, "no-cache")

	resp := rec.Result()
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("unexpected content-type: %s", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("unexpected cache-control: %s", cc)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != content {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestMakeStaticHandlerReturns404ForMissingFile(t *testing.T) {
	handler := makeStaticHandler(t.TempDir(), t.TempDir())

	rec := get(handler, "/static/missing.txt")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestMakeStaticHandlerServesPublicFile(t *testing.T) {
	publicDir := t.TempDir()
	expected := "Hello from public!"
	_ = os.WriteFile(filepath.Join(publicDir, "hello.txt"), []byte(expected), 0644)

	rec := get(makeStaticHandler(publicDir, t.TempDir()), "/static/hello.txt")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
	if rec.Body.String() != expected {
		t.Errorf("expected body %q, got %q", expected, rec.Body.String())
	}
}

func TestMakeStaticHandlerRejectsTraversal(t *testing.T) {
	rec := get(makeStaticHandler(t.TempDir(), t.TempDir()), "/static/../secrets.txt")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 Bad Request, got %d", rec.Code)
	}
}

func TestMakeStaticHandlerServesGzipFromCache(t *testing.T) {
	cacheDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(cacheDir, "script.js.gz"), []byte("gzipped content"), 0644)

	handler := makeStaticHandler(t.TempDir(), cacheDir)

	req := httptest.NewRequest(http.MethodGet, "/static/script.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Error("expected gzip Content-Encoding")
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Error("expected Vary: Accept-Encoding header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("expected javascript content type, got %q", ct)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
}

func TestMakeStaticHandlerServesNonGzipCacheFile(t *testing.T) {
	cacheDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(cacheDir, "styles.css"), []byte("cached css"), 0644)

	handler := makeStaticHandler(t.TempDir(), cacheDir)

	req := httptest.NewRequest(http.MethodGet, "/static/styles.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "" {
		t.Error("did not expect Content-Encoding for non-gzip file")
	}
	if rec.Body.String() != "cached css" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestMakeStaticHandlerStripsQueryParams(t *testing.T) {
	publicDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(publicDir, "main.js"), []byte("main js"), 0644)

	rec := get(makeStaticHandler(publicDir, t.TempDir()), "/static/main.js?v=1234")

	if rec.Body.String() != "main js" {
		t.Errorf("expected file body to match, got %q", rec.Body.String())
	}
}

func TestSetupDevStaticRoutesFaviconAndRobots(t *testing.T) {
	publicDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(publicDir, "favicon.ico"), []byte("icon"), 0644)
	_ = os.WriteFile(filepath.Join(publicDir, "robots.txt"), []byte("robots"), 0644)

	mux := http.NewServeMux()
	setupDevStaticRoutes(mux, publicDir)

	for path, expected := range map[string]string{"/favicon.ico": "icon", "/robots.txt": "robots"} {
		rec := get(mux, path)

		if rec.Body.String() != expected {
			t.Errorf("expected %q, got %q", expected, rec.Body.String())
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
			t.Errorf("expected Cache-Control: no-store for %s, got %s", path, cc)
		}
	}
}

func TestDevStaticRoutes_FileServerAddsNoStore(t *testing.T) {
	publicDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(publicDir, "test.js"), []byte("content"), 0644)

	mux := http.NewServeMux()
	setupDevStaticRoutes(mux, publicDir)

	rec := get(mux, "/static/test.js")

	if rec.Body.String() != "content" {
		t.Errorf("expected file content, got %q", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected 'no-store', got %q", cc)
	}
}

func TestSetupProdStaticRoutesImmutable(t *testing.T) {
	publicDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(publicDir, "robots.txt"), []byte("robots"), 0644)

	mux := http.NewServeMux()
	setupProdStaticRoutes(mux, publicDir, t.TempDir())

	rec := get(mux, "/robots.txt")
	if rec.Body.String() != "robots" {
		t.Errorf("expected robots body, got %q", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=31536000, immutable" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestBuildServerInDev(t *testing.T) {
	original := core.NewLiveReloader
	core.NewLiveReloader = func() core.LiveReloaderInterface {
		return &mockReloader{}
	}
	t.Cleanup(func() { core.NewLiveReloader = original })

	site, err := BuildServer(RuntimeConfig{
		Env:        "dev",
		Port:       3001,
		ConfigPath: writeConfig(t, ""),
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}

	if site.Addr != ":3001" {
		t.Errorf("expected :3001, got %s", site.Addr)
	}

	rec := get(site.Handler, core.LiveReloadPath)
	if rec.Code != http.StatusOK || rec.Body.String() != "reload ok" {
		t.Errorf("expected reload handler, got %d %q", rec.Code, rec.Body.String())
	}

	rec = get(site.Handler, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for index, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), core.IndexVariable) {
		t.Errorf("expected index variable, got %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), core.LiveReloadPath) {
		t.Error("expected live reload script in dev")
	}
	if rec.Header().Get(core.RequestIDHeader) == "" {
		t.Error("expected request id header")
	}

	for path, text := range map[string]string{
		"/about":    core.AboutText,
		"/services": core.ServicesText,
		"/contact":  core.ContactText,
	} {
		if rec := get(site.Handler, path); rec.Body.String() != text {
			t.Errorf("%s: expected %q, got %q", path, text, rec.Body.String())
		}
	}
}

func TestBuildServerTemplateModeFromFlag(t *testing.T) {
	site, err := BuildServer(RuntimeConfig{
		Env:        "prod",
		Port:       8080,
		ConfigPath: writeConfig(t, "mode: text\n"),
		Mode:       "template",
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	if site.Config.Mode != core.ModeTemplate {
		t.Errorf("expected flag to override config mode, got %q", site.Config.Mode)
	}

	rec := get(site.Handler, "/about")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>About</h1>") {
		t.Errorf("expected rendered about template, got %q", rec.Body.String())
	}
}

func TestBuildServerUnknownModeFallsBackToText(t *testing.T) {
	site, err := BuildServer(RuntimeConfig{
		Env:        "prod",
		ConfigPath: writeConfig(t, "mode: fancy\nlogLevel: error\n"),
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	if site.Config.Mode != core.ModeText {
		t.Errorf("expected text mode, got %q", site.Config.Mode)
	}
}

func TestBuildServerInProdCaches(t *testing.T) {
	configPath := writeConfig(t, "")
	site, err := BuildServer(RuntimeConfig{
		Env:         "prod",
		EnableCache: boolPtr(true),
		ConfigPath:  configPath,
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}

	if rec := get(site.Handler, "/contact"); rec.Body.String() != core.ContactText {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if _, ok := core.GetCachedHTML(site.Config, "contact"); !ok {
		t.Error("expected contact page in cache")
	}

	rec := get(site.Handler, "/contact")
	if rec.Header().Get("X-Homepages-Cache") != "HIT" {
		t.Error("expected cache hit")
	}

	if rec := get(site.Handler, core.LiveReloadPath); rec.Code != http.StatusNotFound {
		t.Errorf("live reload must not exist in prod, got %d", rec.Code)
	}
}

func TestBuildServerFailsOnBrokenTemplatesDir(t *testing.T) {
	empty := t.TempDir()
	_, err := BuildServer(RuntimeConfig{
		Env:        "dev",
		ConfigPath: writeConfig(t, "templatesDir: "+empty+"\n"),
	})
	if err == nil {
		t.Fatal("expected error for templates dir without templates")
	}
}

func TestBuildServerWatchesTemplatesDirInDev(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.html", "about.html", "services.html", "contact.html"} {
		_ = os.WriteFile(filepath.Join(dir, name), []byte("<p>"+name+"</p>"), 0644)
	}

	site, err := BuildServer(RuntimeConfig{
		Env:        "dev",
		ConfigPath: writeConfig(t, "templatesDir: "+dir+"\n"),
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	if site.watcher == nil {
		t.Error("expected a watcher for on-disk templates in dev")
	}
}

func TestStart_CallsListenAndServe(t *testing.T) {
	called := false
	var gotAddr string
	var gotHandler http.Handler

	original := ListenAndServe
	ListenAndServe = func(ctx context.Context, addr string, handler http.Handler) error {
		called = true
		gotAddr = addr
		gotHandler = handler
		return nil
	}
	t.Cleanup(func() { ListenAndServe = original })

	err := Start(context.Background(), RuntimeConfig{
		Env:        "prod",
		Port:       4321,
		ConfigPath: writeConfig(t, ""),
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !called {
		t.Fatal("expected ListenAndServe to be called")
	}
	if gotAddr != ":4321" {
		t.Errorf("expected addr ':4321', got %q", gotAddr)
	}
	if rec := get(gotHandler, "/about"); rec.Body.String() != core.AboutText {
		t.Errorf("expected about text, got %q", rec.Body.String())
	}
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if err := ListenAndServe(ctx, "127.0.0.1:0", handler); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestBuildServerUsesConfigCacheSettingWithoutFlag(t *testing.T) {
	site, err := BuildServer(RuntimeConfig{
		Env:        "prod",
		ConfigPath: writeConfig(t, "cache: true\n"),
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	if !site.Config.CacheEnabled {
		t.Fatal("expected cache: true from the config file")
	}

	get(site.Handler, "/about")
	if rec := get(site.Handler, "/about"); rec.Header().Get("X-Homepages-Cache") != "HIT" {
		t.Error("expected cache hit with cache enabled in config")
	}
}

func TestBuildServerCacheFlagOverridesConfig(t *testing.T) {
	site, err := BuildServer(RuntimeConfig{
		Env:         "prod",
		EnableCache: boolPtr(false),
		ConfigPath:  writeConfig(t, "cache: true\n"),
	})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	if site.Config.CacheEnabled {
		t.Error("expected --cache=false to win over the config file")
	}
}

func TestBuildServerDropsCacheWhenModeChanges(t *testing.T) {
	configPath := writeConfig(t, "cache: true\n")

	text, err := BuildServer(RuntimeConfig{Env: "prod", ConfigPath: configPath})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	if rec := get(text.Handler, "/about"); rec.Body.String() != core.AboutText {
		t.Fatalf("unexpected text body %q", rec.Body.String())
	}
	if _, ok := core.GetCachedHTML(text.Config, "about"); !ok {
		t.Fatal("expected about page in cache")
	}

	tmpl, err := BuildServer(RuntimeConfig{Env: "prod", ConfigPath: configPath, Mode: "template"})
	if err != nil {
		t.Fatalf("BuildServer failed: %v", err)
	}
	rec := get(tmpl.Handler, "/about")
	if rec.Header().Get("X-Homepages-Cache") == "HIT" {
		t.Error("page cached under text mode must not be served in template mode")
	}
	if !strings.Contains(rec.Body.String(), "<h1>About</h1>") {
		t.Errorf("expected rendered about template, got %q", rec.Body.String())
	}
}
