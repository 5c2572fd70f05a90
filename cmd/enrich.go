package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/boundary"
	"github.com/tripheatmap/neighborhood-cli/internal/enrich"
)

var (
	enrichCity       string
	enrichPopulation bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate neighborhood descriptions and backfill census population",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		city, err := registry.Get(enrichCity)
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if enrichPopulation {
			client := &http.Client{Timeout: time.Duration(cfg.Census.TimeoutSecs) * time.Second}
			enricher := boundary.NewPopulationEnricher(st, client, cfg.Census.ACSURL)
			updated, err := enricher.Enrich(ctx, city)
			if err != nil {
				return eris.Wrapf(err, "population %s", enrichCity)
			}
			zap.L().Info("population backfill complete",
				zap.String("city", enrichCity),
				zap.Int("updated", updated),
			)
		}

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic key is required (TRIPHEATMAP_ANTHROPIC_KEY)")
		}

		generator := enrich.NewGenerator(st, cfg.Anthropic.Key, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		updated, err := generator.EnrichCity(ctx, city.CityName())
		if err != nil {
			return eris.Wrapf(err, "enrich %s", enrichCity)
		}

		zap.L().Info("enrichment complete",
			zap.String("city", enrichCity),
			zap.Int("descriptions", updated),
		)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichCity, "city", "", "city key (required)")
	enrichCmd.Flags().BoolVar(&enrichPopulation, "population", false, "also backfill tract population from the ACS")
	_ = enrichCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(enrichCmd)
}
