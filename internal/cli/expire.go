package cli

import (
	"time"

	listsvc "nhadat-backend/internal/application/listings"
	"nhadat-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var expireCmd = &cobra.Command{
	Use:   "expire-listings",
	Short: "Mark approved listings past their expiry date as expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := router.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		n, err := (&listsvc.Service{DB: db}).ExpireDue(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		log.Info().Int("expired", n).Msg("expiry sweep done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(expireCmd)
}
