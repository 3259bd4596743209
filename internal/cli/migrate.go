package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"dconn.dev/portfolio/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := bootstrap()
			if err != nil {
				return err
			}
			defer logCloser.Close()

			db, err := database.Open(commandContext(cmd), cfg.DatabaseURL, cfg.DBMaxOpenConns)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("migrations complete")
			return nil
		},
	}
}
