package main

import (
	"fmt"
	"os"

	"github.com/mwantia/agrilink/cmd/agrilink/cli"
	"github.com/mwantia/agrilink/cmd/agrilink/cli/client"
	"github.com/mwantia/agrilink/cmd/agrilink/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	info := cli.VersionInfo{
		Version: version,
		Commit:  commit,
	}
	root := cli.NewRootCommand(info)

	root.AddCommand(cli.NewVersionCommand(info))

	root.AddCommand(server.NewServeCommand(info.String()))
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(server.NewMigrateCommand())

	root.AddCommand(client.NewPreviewCommand())
	root.AddCommand(client.NewFingerprintCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
