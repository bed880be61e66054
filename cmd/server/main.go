package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// @title Blockcoach API
// @version 1.0
// @description API for coaches and athletes: connections, training blocks, templates, set logging and videos.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var configPath string

var rootCmd = &cobra.Command{
	Use:   "blockcoach",
	Short: "Training block planning for coaches and athletes",
	Long: `blockcoach serves the coaching API.

Without a subcommand it starts the HTTP server. Configuration comes from
config.yaml in --config, a .env file next to it, and environment variables.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding config.yaml and .env")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Errorf("blockcoach: %v", err)
		os.Exit(1)
	}
}
