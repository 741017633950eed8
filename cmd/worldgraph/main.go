package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "worldgraph",
		Short: "Explore and transform entity graph worlds",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "worldgraph.yaml", "Project config file")
	root.AddCommand(initCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(opsCmd())
	root.AddCommand(callCmd())
	root.AddCommand(probeCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
