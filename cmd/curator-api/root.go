package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use: "curator-api",
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
