package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-barry/homepages/core"
)

func captureOutput(f func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func overrideLoadConfig(outputDir string, testFn func()) {
	orig := loadConfig
	loadConfig = func(_ string) core.Config {
		cfg := core.DefaultConfig()
		cfg.OutputDir = outputDir
		return cfg
	}
	defer func() { loadConfig = orig }()
	testFn()
}

// writeSite lays out a templates dir and a config file pointing at it.
func writeSite(t *testing.T, pages map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	tplDir := filepath.Join(dir, "templates")
	if err := os.MkdirAll(tplDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, body := range pages {
		if err := os.WriteFile(filepath.Join(tplDir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	config := "outputDir: " + filepath.Join(dir, "out") + "\n" +
		"templatesDir: " + tplDir + "\n" +
		"publicDir: " + filepath.Join(dir, "public") + "\n"
	configPath := filepath.Join(dir, "homepages.config.yml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func validPages() map[string]string {
	return map[string]string{
		"index.html":    `<html><body>{{ .variable }}</body></html>`,
		"about.html":    `<html><body>About</body></html>`,
		"services.html": `<html><body>Services</body></html>`,
		"contact.html":  `<html><body>Contact</body></html>`,
	}
}
