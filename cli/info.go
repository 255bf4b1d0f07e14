package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v2"

	"github.com/go-barry/homepages"
	"github.com/go-barry/homepages/core"
)

type projectInfo struct {
	OutputDir    string `json:"outputDir"`
	CacheEnabled bool   `json:"cache"`
	DebugHeaders bool   `json:"debugHeaders"`
	Mode         string `json:"mode"`
	TemplatesDir string `json:"templatesDir"`
	Templates    int    `json:"templates"`
	Assets       int    `json:"assets"`
	CachedPages  int    `json:"cachedPages"`
}

var InfoCommand = &cli.Command{
	Name:  "info",
	Usage: "Print project configuration, template and cache summary",
	Flags: []cli.Flag{
		configFlag(),
		&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON"},
	},
	Action: func(c *cli.Context) error {
		info := collectInfo(loadConfig(c.String("config")))

		if c.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Println("📁 Output Directory:", info.OutputDir)
		fmt.Println("🔁 Cache Enabled:", info.CacheEnabled)
		fmt.Println("🔁 Debug Headers Enabled:", info.DebugHeaders)
		fmt.Println("🧭 Page Mode:", info.Mode)
		fmt.Println("🗂️  Templates Directory:", info.TemplatesDir)
		fmt.Println()
		fmt.Println("📄 Templates Found:", info.Templates)
		fmt.Println("📦 Assets Found:", info.Assets)
		fmt.Println("💾 Cached Pages:", info.CachedPages)

		return nil
	},
}

func collectInfo(config core.Config) projectInfo {
	templatesDir := config.TemplatesDir
	if templatesDir == "" {
		templatesDir = "(embedded)"
	}

	templateCount := 0
	fsys, _ := homepages.TemplateSource(config)
	fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(path, ".html") {
			templateCount++
		}
		return nil
	})

	assetCount := 0
	filepath.Walk(config.PublicDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			assetCount++
		}
		return nil
	})

	return projectInfo{
		OutputDir:    config.OutputDir,
		CacheEnabled: config.CacheEnabled,
		DebugHeaders: config.DebugHeaders,
		Mode:         string(config.Mode),
		TemplatesDir: templatesDir,
		Templates:    templateCount,
		Assets:       assetCount,
		CachedPages:  core.CountCachedPages(config),
	}
}
