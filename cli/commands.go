package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/go-barry/homepages"
	"github.com/go-barry/homepages/core"
)

var startSite = homepages.Start

var loadConfig = core.LoadConfig

const defaultPort = 8080

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the YAML config file",
		Value:   core.DefaultConfigFile,
		EnvVars: []string{"HOMEPAGES_CONFIG"},
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "port to listen on",
			Value:   defaultPort,
			EnvVars: []string{"HOMEPAGES_PORT"},
		},
		&cli.StringFlag{
			Name:    "mode",
			Usage:   "how about/services/contact answer: text or template (default from config)",
			EnvVars: []string{"HOMEPAGES_MODE"},
		},
	}
}

var DevCommand = &cli.Command{
	Name:  "dev",
	Usage: "Start the site in dev mode (no caching, live reload)",
	Flags: serveFlags(),
	Action: func(c *cli.Context) error {
		off := false
		return serve(c, homepages.RuntimeConfig{
			Env:         "dev",
			EnableCache: &off,
		})
	},
}

var ProdCommand = &cli.Command{
	Name:  "prod",
	Usage: "Start the site in production mode (page cache from config or --cache)",
	Flags: append(serveFlags(), &cli.BoolFlag{
		Name:    "cache",
		Usage:   "cache rendered pages in the output directory (default from config)",
		EnvVars: []string{"HOMEPAGES_CACHE"},
	}),
	Action: func(c *cli.Context) error {
		cfg := homepages.RuntimeConfig{Env: "prod"}
		if c.IsSet("cache") {
			enabled := c.Bool("cache")
			cfg.EnableCache = &enabled
		}
		return serve(c, cfg)
	},
}

func serve(c *cli.Context, cfg homepages.RuntimeConfig) error {
	cfg.Port = c.Int("port")
	cfg.ConfigPath = c.String("config")
	cfg.Mode = c.String("mode")

	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return startSite(ctx, cfg)
}
