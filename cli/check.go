package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/go-barry/homepages"
	"github.com/go-barry/homepages/core"
)

var CheckCommand = &cli.Command{
	Name:  "check",
	Usage: "Render every page template and report failures",
	Flags: []cli.Flag{configFlag()},
	Action: func(c *cli.Context) error {
		config := loadConfig(c.String("config"))

		fsys, _ := homepages.TemplateSource(config)
		renderer, err := core.NewTemplateRenderer(fsys, "dev", config)
		if err != nil {
			fmt.Printf("❌ templates → %v\n", err)
			return cli.Exit("templates failed to parse", 1)
		}

		fmt.Printf("📄 Parsed %d templates: %s\n", len(renderer.Files()), strings.Join(renderer.Files(), ", "))

		// template mode exercises every page template, whatever the configured mode
		pages := core.NewPageSet(renderer, core.ModeTemplate)

		var failed bool
		for _, page := range pages.Pages() {
			req, _ := http.NewRequest(http.MethodGet, page.Path, nil)
			if _, err := page.Handler(req); err != nil {
				failed = true
				if core.IsNotFoundError(err) {
					fmt.Printf("❌ %s → missing template %s\n", page.Path, page.Template)
					continue
				}
				fmt.Printf("❌ %s → %v\n", page.Path, err)
				continue
			}
			fmt.Printf("✅ %s\n", page.Path)
		}

		if failed {
			return cli.Exit("some templates failed to render", 1)
		}

		fmt.Println("✅ All templates validated successfully.")
		return nil
	},
}
