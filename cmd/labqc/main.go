package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "labqc",
		Short:         "Clinical lab report QC service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(bulkCmd())
	rootCmd.AddCommand(labidCmd())
	rootCmd.AddCommand(compileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
