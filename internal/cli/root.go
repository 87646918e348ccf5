package cli

import (
	"fmt"
	"os"

	"nhadat-backend/bootstrap"
	"nhadat-backend/internal/config"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nhadat-api",
	Short: "Real-estate classifieds API",
	Long: `Real-estate classifieds API: accounts, listings with images and the
moderation workflow. Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		bootstrap.ConfigureLogging(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
