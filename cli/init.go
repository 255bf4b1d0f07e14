package cli

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/go-barry/homepages/templates"
)

//go:embed _starter
var starterFS embed.FS

var InitCommand = &cli.Command{
	Name:  "init",
	Usage: "Write the starter config, templates and public files into the current directory",
	Action: func(c *cli.Context) error {
		targetDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		fmt.Println("🚀 Creating homepages project in:", targetDir)

		if err := copyEmbeddedDir(starterFS, "_starter", targetDir); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		if err := copyEmbeddedDir(templates.FS, ".", filepath.Join(targetDir, "templates")); err != nil {
			return fmt.Errorf("failed to write templates: %w", err)
		}

		fmt.Println("✅ Project created successfully.")
		fmt.Println("▶  Run: homepages dev")
		return nil
	},
}

// copyEmbeddedDir copies sourceDir of source into targetDir. Files that
// already exist are left untouched.
func copyEmbeddedDir(source fs.FS, sourceDir string, targetDir string) error {
	return fs.WalkDir(source, sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(targetDir, os.ModePerm)
		}

		targetPath := filepath.Join(targetDir, rel)

		if d.IsDir() {
			return os.MkdirAll(targetPath, os.ModePerm)
		}

		if _, err := os.Stat(targetPath); err == nil {
			fmt.Println("⏭  Keeping existing:", rel)
			return nil
		}

		data, err := fs.ReadFile(source, path)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), os.ModePerm); err != nil {
			return err
		}

		return os.WriteFile(targetPath, data, 0o644)
	})
}
