package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importCity  string
	importAll   bool
	importForce bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import neighborhood boundaries for a city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importCity == "" && !importAll {
			return eris.New("either --city or --all is required")
		}

		registry, err := loadRegistry()
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		importer := buildImporter(st, registry)

		if importAll {
			results, err := importer.ImportAll(ctx, importForce)
			if err != nil {
				return eris.Wrap(err, "import all")
			}
			imported, failed := 0, 0
			for _, r := range results {
				imported += r.Imported
				failed += r.Failed
			}
			zap.L().Info("import complete",
				zap.Int("cities", len(results)),
				zap.Int("imported", imported),
				zap.Int("failed", failed),
			)
			return nil
		}

		result, err := importer.ImportCity(ctx, importCity, importForce)
		if err != nil {
			return eris.Wrapf(err, "import %s", importCity)
		}

		zap.L().Info("import complete",
			zap.String("city", result.City),
			zap.String("method", result.Method),
			zap.Bool("fresh", result.Fresh),
			zap.Int("imported", result.Imported),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCity, "city", "", "city key to import")
	importCmd.Flags().BoolVar(&importAll, "all", false, "import every enabled city")
	importCmd.Flags().BoolVar(&importForce, "force", false, "bypass the freshness gate")
	rootCmd.AddCommand(importCmd)
}
