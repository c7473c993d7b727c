package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/database"
)

func (a *app) newSeedCmd() *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "seed",
		Short: "Load an association catalog into the database",
		Long: `Upserts every association from a YAML catalog file (or the built-in
catalog when no file is given) into the SQLite database. Ratings are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.CatalogFile
			}
			list, err := catalog.LoadSeed(file)
			if err != nil {
				return err
			}
			db, err := database.OpenAndMigrate(a.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			n, err := catalog.Seed(cmd.Context(), catalog.NewSQLite(db), list)
			if err != nil {
				return err
			}
			log.Info().Int("associations", n).Str("database", a.cfg.DatabasePath).Msg("catalog seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d associations\n", n)
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default: CATALOG_FILE or built-in)")
	return c
}
