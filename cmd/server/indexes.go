package main

import (
	"context"
	"errors"
	"time"

	"alcyxob/blockcoach/internal/repository/mongo"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.Driver == "memory" {
			return errors.New("the memory driver has no indexes")
		}
		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, a.mongoDB)
		log.Info("indexes ensured")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
