package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
)

const acsPopulationVariable = "B01003_001E"

// PopulationEnricher backfills tract population from the ACS 5-year API.
// Enrichment is best-effort: a failed lookup leaves population null.
type PopulationEnricher struct {
	store  store.Store
	client *http.Client
	acsURL string
	log    *zap.Logger
}

// NewPopulationEnricher creates an enricher against the given ACS endpoint.
func NewPopulationEnricher(st store.Store, client *http.Client, acsURL string) *PopulationEnricher {
	if client == nil {
		client = http.DefaultClient
	}
	return &PopulationEnricher{
		store:  st,
		client: client,
		acsURL: acsURL,
		log:    zap.L().With(zap.String("component", "boundary.population")),
	}
}

// Enrich fetches tract populations for a city's county and writes them onto
// matching neighborhoods. Only cities with census codes can be enriched.
func (e *PopulationEnricher) Enrich(ctx context.Context, city cities.City) (int, error) {
	if !city.HasCensusCodes() {
		return 0, &model.ConfigurationError{City: city.Key, Reason: "no state/county FIPS codes for population lookup"}
	}

	url := fmt.Sprintf("%s?get=%s&for=tract:*&in=state:%s%%20county:%s",
		e.acsURL, acsPopulationVariable, city.StateFIPS, city.CountyFIPS)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, eris.Wrap(err, "population: build request")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, &model.SourceUnavailableError{Source: "acs", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &model.SourceUnavailableError{
			Source: "acs",
			Err:    eris.Errorf("status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "population: read response")
	}

	rows, err := parseACSRows(body)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		found, err := e.store.UpdatePopulationByGeoID(ctx, row.geoid, row.population)
		if err != nil {
			return updated, eris.Wrap(err, "population: update")
		}
		if found {
			updated++
		}
	}

	e.log.Info("population enriched",
		zap.String("city", city.Key),
		zap.Int("tracts", len(rows)),
		zap.Int("updated", updated))
	return updated, nil
}

type acsRow struct {
	geoid      string
	population int
}

// parseACSRows decodes the ACS array-of-arrays response. The first row is a
// header; data columns are value, state, county, tract. The tract GEOID is
// the state, county, and tract codes concatenated.
func parseACSRows(body []byte) ([]acsRow, error) {
	var raw [][]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "population: parse ACS response")
	}
	if len(raw) < 2 {
		return nil, nil
	}

	var rows []acsRow
	for _, rec := range raw[1:] {
		if len(rec) < 4 {
			continue
		}
		pop, err := strconv.Atoi(rec[0])
		if err != nil || pop < 0 {
			continue
		}
		rows = append(rows, acsRow{
			geoid:      rec[1] + rec[2] + rec[3],
			population: pop,
		})
	}
	return rows, nil
}
