package cmd

import (
	"github.com/spf13/cobra"

	"soundscape/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the SoundScape HTTP server",
	Long:  `Start the catalog API server: sound CRUD, proximity and faceted search, analytics and recommendations.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
