package core

import (
	"os"
	"path/filepath"
	"strings"
)

// CacheKey maps a page path onto its directory below the output dir.
func CacheKey(path string) string {
	key := strings.Trim(path, "/")
	if key == "" {
		return "index"
	}
	return key
}

func cachedHTMLPath(config Config, routeKey string) string {
	return filepath.Join(config.OutputDir, routeKey, "index.html")
}

func GetCachedHTML(config Config, routeKey string) ([]byte, bool) {
	content, err := os.ReadFile(cachedHTMLPath(config, routeKey))
	if err != nil {
		return nil, false
	}
	return content, true
}

// GetCachedGzip returns the path of the gzip twin when it exists.
func GetCachedGzip(config Config, routeKey string) (string, bool) {
	gzPath := cachedHTMLPath(config, routeKey) + ".gz"
	if _, err := os.Stat(gzPath); err != nil {
		return "", false
	}
	return gzPath, true
}

func SaveCachedHTML(config Config, routeKey string, html []byte) error {
	outDir := filepath.Join(config.OutputDir, routeKey)
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return err
	}

	htmlPath := filepath.Join(outDir, "index.html")
	if err := writeFileAtomic(htmlPath, html); err != nil {
		return err
	}

	return writeGzip(htmlPath+".gz", html)
}

// CountCachedPages counts cached index.html files below the output dir.
func CountCachedPages(config Config) int {
	count := 0
	filepath.Walk(config.OutputDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Base(path) == "index.html" {
			count++
		}
		return nil
	})
	return count
}

const cacheModeFile = ".mode"

// PrepareCache drops cached pages rendered under a different page mode and
// records the current one. It reports whether pages were dropped.
func PrepareCache(config Config) (bool, error) {
	marker := filepath.Join(config.OutputDir, cacheModeFile)
	if recorded, err := os.ReadFile(marker); err == nil && PageMode(strings.TrimSpace(string(recorded))) == config.Mode {
		return false, nil
	}

	cleared := false
	if CountCachedPages(config) > 0 {
		entries, err := os.ReadDir(config.OutputDir)
		if err != nil {
			return false, err
		}
		for _, entry := range entries {
			// minified assets do not depend on the page mode
			if !entry.IsDir() || entry.Name() == "static" {
				continue
			}
			if err := os.RemoveAll(filepath.Join(config.OutputDir, entry.Name())); err != nil {
				return false, err
			}
		}
		cleared = true
	}

	if err := os.MkdirAll(config.OutputDir, os.ModePerm); err != nil {
		return cleared, err
	}
	return cleared, writeFileAtomic(marker, []byte(config.Mode))
}
