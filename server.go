package homepages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/zerolog"

	"github.com/go-barry/homepages/core"
	"github.com/go-barry/homepages/templates"
)

const shutdownTimeout = 5 * time.Second

type RuntimeConfig struct {
	Env string
	// EnableCache overrides the config file's cache setting when non-nil.
	EnableCache *bool
	Port        int
	ConfigPath  string
	Mode        string
}

// Site is a fully wired server that has not started listening yet.
type Site struct {
	Addr    string
	Handler http.Handler
	Logger  zerolog.Logger
	Config  core.Config
	watcher *core.Watcher
}

var ListenAndServe = func(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Start builds the site and serves it until ctx is cancelled.
func Start(ctx context.Context, cfg RuntimeConfig) error {
	site, err := BuildServer(cfg)
	if err != nil {
		return err
	}

	if site.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go site.watcher.Run(watchCtx)
	}

	fmt.Println("Starting homepages in", cfg.Env, "mode...")
	fmt.Printf("✅ homepages running at http://localhost%s\n", site.Addr)
	site.Logger.Info().
		Str("_addr", site.Addr).
		Str("_env", cfg.Env).
		Str("_mode", string(site.Config.Mode)).
		Bool("_cache", site.Config.CacheEnabled).
		Msg("server started")

	if err := ListenAndServe(ctx, site.Addr, site.Handler); err != nil {
		return fmt.Errorf("serve %s: %w", site.Addr, err)
	}

	site.Logger.Info().Msg("server stopped")
	return nil
}

func BuildServer(cfg RuntimeConfig) (*Site, error) {
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = core.DefaultConfigFile
	}

	config := core.LoadConfig(configPath)
	if cfg.EnableCache != nil {
		config.CacheEnabled = *cfg.EnableCache
	}
	logger := core.NewLogger(config)

	if cfg.Mode != "" {
		config.Mode = core.PageMode(cfg.Mode)
	}
	mode, err := core.ParsePageMode(string(config.Mode))
	if err != nil {
		logger.Warn().Err(err).Msg("falling back to text mode")
	}
	config.Mode = mode

	if cfg.Env == "prod" && config.CacheEnabled {
		cleared, err := core.PrepareCache(config)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("page cache disabled")
			config.CacheEnabled = false
		case cleared:
			logger.Info().Str("_mode", string(config.Mode)).Msg("dropped pages cached under another mode")
		}
	}

	templateFS, onDisk := TemplateSource(config)
	renderer, err := core.NewTemplateRenderer(templateFS, cfg.Env, config)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	pages := core.NewPageSet(renderer, config.Mode)

	mux := http.NewServeMux()
	cacheStaticDir := filepath.Join(config.OutputDir, "static")

	site := &Site{
		Addr:   fmt.Sprintf(":%d", cfg.Port),
		Logger: logger,
		Config: config,
	}

	if cfg.Env == "dev" {
		setupDevStaticRoutes(mux, config.PublicDir)

		reloader := core.NewLiveReloader()
		mux.HandleFunc(core.LiveReloadPath, reloader.Handler)

		mux.Handle("/", core.NewRouter(config, core.RuntimeContext{Env: cfg.Env}, pages.Pages()))

		if onDisk {
			w, err := core.NewWatcher(renderer, reloader.BroadcastReload, logger, config.TemplatesDir, config.PublicDir)
			if err != nil {
				logger.Warn().Err(err).Msg("file watching disabled")
			} else {
				site.watcher = w
			}
		}
	} else {
		setupProdStaticRoutes(mux, config.PublicDir, cacheStaticDir)

		mux.Handle("/", core.NewRouter(config, core.RuntimeContext{Env: cfg.Env}, pages.Pages()))
	}

	site.Handler = alice.New(
		core.RequestID(logger),
		core.AccessLog(),
		core.Recovery(),
	).Then(mux)

	return site, nil
}

// TemplateSource returns the configured templates dir, or the embedded set when
// none is configured. The bool reports whether the files live on disk.
func TemplateSource(config core.Config) (fs.FS, bool) {
	if config.TemplatesDir == "" {
		return templates.FS, false
	}
	return os.DirFS(config.TemplatesDir), true
}

func setupDevStaticRoutes(mux *http.ServeMux, publicDir string) {
	mux.Handle("/static/", http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.FileServer(http.Dir(publicDir)).ServeHTTP(w, r)
	})))

	for _, name := range []string{"favicon.ico", "robots.txt"} {
		file := filepath.Join(publicDir, name)
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, file)
		})
	}
}

func setupProdStaticRoutes(mux *http.ServeMux, publicDir, cacheStaticDir string) {
	mux.Handle("/static/", makeStaticHandler(publicDir, cacheStaticDir))

	for _, name := range []string{"favicon.ico", "robots.txt"} {
		file := filepath.Join(publicDir, name)
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			serveFileWithHeaders(w, r, file, "public, max-age=31536000, immutable")
		})
	}
}

// makeStaticHandler prefers a gzip copy from the cache dir, then the plain
// cached copy, then the file under publicDir.
func makeStaticHandler(publicDir, cacheStaticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trimmed := strings.TrimPrefix(r.URL.Path, "/static/")
		if trimmed == "" || strings.Contains(trimmed, "..") {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		cachedFile := filepath.Join(cacheStaticDir, filepath.FromSlash(trimmed))
		immutable := "public, max-age=31536000, immutable"

		if acceptsGzip(r) {
			gzipFile := cachedFile + ".gz"
			if _, err := os.Stat(gzipFile); err == nil {
				w.Header().Set("Content-Type", detectMimeType(cachedFile))
				w.Header().Set("Content-Encoding", "gzip")
				w.Header().Set("Vary", "Accept-Encoding")
				w.Header().Set("Cache-Control", immutable)
				http.ServeFile(w, r, gzipFile)
				return
			}
		}

		if _, err := os.Stat(cachedFile); err == nil {
			serveFileWithHeaders(w, r, cachedFile, immutable)
			return
		}

		publicFile := filepath.Join(publicDir, filepath.FromSlash(trimmed))
		if _, err := os.Stat(publicFile); err == nil {
			serveFileWithHeaders(w, r, publicFile, immutable)
			return
		}

		http.NotFound(w, r)
	})
}

func serveFileWithHeaders(w http.ResponseWriter, r *http.Request, path, cacheControl string) {
	w.Header().Set("Content-Type", detectMimeType(path))
	w.Header().Set("Cache-Control", cacheControl)
	http.ServeFile(w, r, path)
}

func detectMimeType(path string) string {
	switch filepath.Ext(path) {
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".ico":
		return "image/x-icon"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}
