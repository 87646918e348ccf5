package cli

import (
	"nhadat-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := router.OpenDatabase(cfg); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.DatabaseDriver).Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
