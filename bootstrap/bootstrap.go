package bootstrap

import (
	"os"
	"time"

	"nhadat-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging sets the global zerolog logger: console output in development, JSON otherwise.
func ConfigureLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	switch cfg.Env {
	case "production":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case "test":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
