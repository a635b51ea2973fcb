// Command ravitoctl groups the operator tasks that run outside the API:
// seeding the first admin, hashing a password, exporting an annual report
// and handling dead-lettered jobs.
package main

import (
	"os"
	"time"

	"ravito/internal/config"
	"ravito/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	root := &cobra.Command{
		Use:           "ravitoctl",
		Short:         "Outils d'exploitation RAVITO",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(hashPasswordCmd(), seedAdminCmd(), reportCmd(), dlqCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("ravitoctl")
	}
}

// openDB loads the config and connects (and migrates) the database.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
