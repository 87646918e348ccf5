package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	listsvc "nhadat-backend/internal/application/listings"
	"nhadat-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	if cfg.ExpirySweepInterval > 0 {
		go sweepExpired(ctx, db, cfg.ExpirySweepInterval)
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// sweepExpired moves approved listings past their expiry to het_han every interval.
func sweepExpired(ctx context.Context, db *gorm.DB, interval time.Duration) {
	svc := &listsvc.Service{DB: db}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ExpireDue(ctx, time.Now()); err != nil {
				log.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}
