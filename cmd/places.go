package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var placesCity string

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Refresh amenity places and vibrancy stats for a city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		city, err := registry.Get(placesCity)
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		result, err := buildAggregator(st).AggregateCity(ctx, city.CityName())
		if err != nil {
			return eris.Wrapf(err, "aggregate %s", placesCity)
		}

		zap.L().Info("aggregation complete",
			zap.String("city", placesCity),
			zap.Int("total", result.Total),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
		for _, msg := range result.Errors {
			zap.L().Warn("aggregation error", zap.String("detail", msg))
		}
		return nil
	},
}

func init() {
	placesCmd.Flags().StringVar(&placesCity, "city", "", "city key (required)")
	_ = placesCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(placesCmd)
}
