package core

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	minjs "github.com/tdewolff/minify/v2/js"
)

// MinifyAsset writes a minified copy (plus gzip twin) of a /static/ css or js
// file into cacheDir/static and returns its fingerprinted URL. Outside prod,
// or on any failure, the original path comes back unchanged.
func MinifyAsset(env, path, publicDir, cacheDir string) string {
	if env != "prod" {
		return path
	}

	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)

	if ext != ".css" && ext != ".js" {
		return path
	}
	if strings.HasSuffix(name, ".min") {
		return path
	}

	rel := strings.TrimPrefix(path, "/static/")
	src := filepath.Join(publicDir, rel)
	dst := filepath.Join(cacheDir, "static", filepath.Dir(rel), name+".min"+ext)

	original, err := os.ReadFile(src)
	if err != nil {
		return path
	}

	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)
	m.AddFunc("application/javascript", minjs.Minify)

	mediaType := "text/css"
	if ext == ".js" {
		mediaType = "application/javascript"
	}

	var buf bytes.Buffer
	if err := m.Minify(mediaType, &buf, bytes.NewReader(original)); err != nil {
		return path
	}
	minified := buf.Bytes()

	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return path
	}
	if err := writeFileAtomic(dst, minified); err != nil {
		return path
	}
	if err := writeGzip(dst+".gz", minified); err != nil {
		return path
	}

	minRel := filepath.ToSlash(filepath.Join(filepath.Dir(rel), name+".min"+ext))
	return fmt.Sprintf("/static/%s?v=%s", minRel, shortHash(minified))
}

// AssetMinifier remembers the URL MinifyAsset produced for each asset, so a
// file is minified and written once per template set instead of on every
// render.
type AssetMinifier struct {
	env       string
	publicDir string
	cacheDir  string

	lock sync.Mutex
	urls map[string]string
}

func NewAssetMinifier(env, publicDir, cacheDir string) *AssetMinifier {
	return &AssetMinifier{
		env:       env,
		publicDir: publicDir,
		cacheDir:  cacheDir,
		urls:      make(map[string]string),
	}
}

func (a *AssetMinifier) URL(path string) string {
	a.lock.Lock()
	defer a.lock.Unlock()

	if url, ok := a.urls[path]; ok {
		return url
	}
	url := MinifyAsset(a.env, path, a.publicDir, a.cacheDir)
	a.urls[path] = url
	return url
}

// Reset forgets every remembered URL. The next render minifies again.
func (a *AssetMinifier) Reset() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.urls = make(map[string]string)
}

func SiteTemplateFuncs(assets *AssetMinifier) template.FuncMap {
	return template.FuncMap{
		"minify": assets.URL,
		"props": func(values ...interface{}) map[string]interface{} {
			if len(values)%2 != 0 {
				panic("props must be called with even number of arguments")
			}
			m := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					panic("props keys must be strings")
				}
				m[key] = values[i+1]
			}
			return m
		},
		"safeHTML": func(s interface{}) template.HTML {
			switch val := s.(type) {
			case template.HTML:
				return val
			case string:
				return template.HTML(val)
			default:
				return ""
			}
		},
	}
}

func shortHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:6]
}

func writeGzip(path string, data []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers see either the old file or the complete new one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
