package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the tool version, overridable at build time.
var Version = "0.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("openadmin v%s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
