package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var (
		file    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load projects from a YAML seed file",
		Long: `seed upserts every project in the file by slug, in one transaction.
Existing projects keep their id and creation time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := bootstrap()
			if err != nil {
				return err
			}
			defer logCloser.Close()

			projects, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
			if err != nil {
				return err
			}
			defer db.Close()

			if migrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}

			n, err := seed.Apply(ctx, db, projects)
			if err != nil {
				return err
			}
			slog.Info("seeded projects", "count", n, "file", file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "data/projects.yaml", "seed file")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply migrations before seeding")
	return cmd
}
