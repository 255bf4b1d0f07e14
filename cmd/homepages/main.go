package main

import (
	"log"
	"os"

	clilib "github.com/urfave/cli/v2"

	homecli "github.com/go-barry/homepages/cli"
)

func main() {
	if err := runApp(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runApp(args []string) error {
	app := &clilib.App{
		Name:  "homepages",
		Usage: "Serve the home, about, services and contact pages",
		Commands: []*clilib.Command{
			homecli.InitCommand,
			homecli.DevCommand,
			homecli.ProdCommand,
			homecli.CleanCommand,
			homecli.CheckCommand,
			homecli.InfoCommand,
		},
	}

	return app.Run(args)
}
