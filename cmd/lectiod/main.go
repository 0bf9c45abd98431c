package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lectio-dev/lectio/internal/cli"
	"github.com/lectio-dev/lectio/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lectiod",
		Short: "Lectio daemon and indexer",
		Long:  "Lectio daemon for running the semantic search API and indexing corpora",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
