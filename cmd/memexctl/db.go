package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dbCmd groups the schema management subcommands
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the annotation database",
	Long: `Manage the annotation database schema.

Subcommands run golang-migrate against DATABASE_URL.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'db' requires a subcommand (migrate, down, status)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
