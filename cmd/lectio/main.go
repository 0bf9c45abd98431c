package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lectio-dev/lectio/internal/cli"
	"github.com/lectio-dev/lectio/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lectio",
		Short: "Lectio CLI - semantic search over a local corpus",
		Long: `Lectio CLI queries a running lectio server.

Environment variables:
  LECTIO_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.SearchCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
