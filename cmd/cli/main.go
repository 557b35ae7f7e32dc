package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var output = "text" // "text" or "json"

var rootCmd = &cobra.Command{
	Use:   "inkvault",
	Short: "Inkvault admin CLI",
	Long: `Inkvault admin CLI works directly against the configured database.
It reads the same environment (.env, DB_DRIVER, DATABASE_URL, REDIS_HOST) as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if output != "text" && output != "json" {
			return fmt.Errorf("--output must be text or json")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(reportsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
