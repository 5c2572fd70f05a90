package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tripheatmap/neighborhood-cli/internal/ranking"
)

var (
	rankCity string
	rankTop  int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the ranked leaderboard for a city as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		city, err := registry.Get(rankCity)
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		withStats, err := st.ListWithStatsByCity(ctx, city.CityName())
		if err != nil {
			return eris.Wrapf(err, "list %s", rankCity)
		}

		entries := make([]ranking.Entry, 0, len(withStats))
		ids := make([]int64, 0, len(withStats))
		for _, item := range withStats {
			entries = append(entries, ranking.Entry{
				Neighborhood: item.Neighborhood,
				Stat:         item.Stat,
			})
			ids = append(ids, item.Neighborhood.ID)
		}

		placesByID, err := st.TopPlaces(ctx, ids)
		if err != nil {
			return eris.Wrap(err, "top places")
		}

		topN := rankTop
		if topN <= 0 {
			topN = cfg.Ranking.TopN
		}
		board := ranking.NewEngine(topN).Rank(city.CityName(), city.State, entries, placesByID)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankCity, "city", "", "city key (required)")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "number of full cards to build (default from config)")
	_ = rankCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(rankCmd)
}
