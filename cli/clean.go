package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/go-barry/homepages/core"
)

var CleanCommand = &cli.Command{
	Name:      "clean",
	Usage:     "Delete cached pages from the output directory (default: outputDir in homepages.config.yml)",
	ArgsUsage: "[page (optional): /, /about, /services or /contact]",
	Flags:     []cli.Flag{configFlag()},
	Action: func(c *cli.Context) error {
		config := loadConfig(c.String("config"))
		target := config.OutputDir

		if c.Args().Len() > 0 {
			page := c.Args().Get(0)
			key, err := core.PageKey(page)
			if err != nil {
				if core.IsNotFoundError(err) {
					return fmt.Errorf("unknown page %q: expected one of /, /about, /services, /contact", page)
				}
				return err
			}
			target = filepath.Join(config.OutputDir, key)
		}

		info, err := os.Stat(target)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("🧼 Nothing to clean:", target)
				return nil
			}
			return fmt.Errorf("failed to access path: %w", err)
		}

		if !info.IsDir() {
			return fmt.Errorf("not a directory: %s", target)
		}

		fmt.Println("🧹 Cleaning:", target)
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("failed to clean cache: %w", err)
		}

		fmt.Println("✅ Done.")
		return nil
	},
}
