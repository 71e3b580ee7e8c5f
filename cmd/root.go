package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soundscape/server"
)

var rootCmd = &cobra.Command{
	Use:   "soundscape",
	Short: "SoundScape is a geo-tagged sound catalog API.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
