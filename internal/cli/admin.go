package cli

import (
	"nhadat-backend/internal/application/accounts"
	"nhadat-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminPassword string
	adminEmail    string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the admin account, or promote an existing account with that username",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := router.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		svc := &accounts.Service{DB: db}
		acc, created, err := svc.EnsureAdmin(cmd.Context(), adminUsername, adminPassword, adminEmail)
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("username", acc.Username).Str("email", acc.Email).Msg("admin account created")
		} else {
			log.Info().Str("username", acc.Username).Msg("existing account promoted to admin")
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "admin", "admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "vuong123", "admin password, used only when the account is created")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "admin@example.com", "admin email")
	rootCmd.AddCommand(createAdminCmd)
}
