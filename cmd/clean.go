package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"soundscape/config"
	"soundscape/db"
)

var cleanConfirmed bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every sound document",
	Long:  `Delete all documents from the sound collection. Requires --yes; the audio objects in the bucket are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !cleanConfirmed {
			log.Fatal("refusing to delete the collection without --yes")
		}

		cfg := config.Load()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, database, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer db.DisconnectMongo(context.Background(), client)

		res, err := database.Collection(cfg.SoundCollection).DeleteMany(ctx, bson.M{})
		if err != nil {
			log.Fatalf("failed to delete documents: %v", err)
		}
		fmt.Printf("deleted %d documents from %s\n", res.DeletedCount, cfg.SoundCollection)
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanConfirmed, "yes", false, "confirm deletion")
	rootCmd.AddCommand(cleanCmd)
}
