// Package cities holds the strongly-typed per-city boundary-source registry.
// It replaces loosely-typed config lookups with a record validated at load
// time and an immutable registry built once at process start.
package cities

import (
	"os"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// FieldMappings names the provider-specific properties holding a feature's
// display name and external id.
type FieldMappings struct {
	Name  string `yaml:"name"`
	GeoID string `yaml:"geoid"`
}

// City is one validated registry entry.
type City struct {
	Key           string        `yaml:"-"`
	Name          string        `yaml:"name"`
	City          string        `yaml:"city,omitempty"`
	State         string        `yaml:"state,omitempty"`
	County        string        `yaml:"county,omitempty"`
	Country       string        `yaml:"country"`
	Disabled      bool          `yaml:"disabled,omitempty"`
	Endpoint      string        `yaml:"endpoint,omitempty"`
	FieldMappings FieldMappings `yaml:"field_mappings,omitempty"`
	Shapefile     string        `yaml:"shapefile,omitempty"`
	StateFIPS     string        `yaml:"state_fips,omitempty"`
	CountyFIPS    string        `yaml:"county_fips,omitempty"`
}

// Validate checks the entry is internally consistent: an endpoint needs field
// mappings, and at least one source must be configured.
func (c City) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Country, validation.Required),
		validation.Field(&c.FieldMappings, validation.By(func(any) error {
			if c.Endpoint == "" {
				return nil
			}
			if c.FieldMappings.Name == "" || c.FieldMappings.GeoID == "" {
				return eris.New("endpoint requires field_mappings.name and field_mappings.geoid")
			}
			return nil
		})),
	)
	if err != nil {
		return err
	}

	if c.Endpoint == "" && c.Shapefile == "" && !c.HasCensusCodes() {
		return eris.New("no boundary source configured (endpoint, shapefile, or FIPS codes)")
	}
	return nil
}

// CityName returns the lowercase city name stored on neighborhood rows.
func (c City) CityName() string {
	if c.City != "" {
		return strings.ToLower(c.City)
	}
	return strings.ToLower(c.Name)
}

// DisplayName returns the properly capitalized name for operator output.
func (c City) DisplayName() string {
	return c.Name
}

// HasCensusCodes reports whether the city carries census-style administrative
// codes, enabling the tract fallback or supplementary layer.
func (c City) HasCensusCodes() bool {
	return c.StateFIPS != "" && c.CountyFIPS != ""
}

// Continent derives the continent from the configured country.
func (c City) Continent() string {
	return continentFor(c.Country)
}

// Registry is the immutable city lookup built once at startup.
type Registry struct {
	cities map[string]City
	keys   []string
}

// Load reads and validates the registry from a YAML file. A single invalid
// entry fails the whole load: configuration errors should surface at startup,
// not as nil lookups mid-import.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cities: read %s", path)
	}
	return Parse(data)
}

// Parse builds a registry from raw YAML.
func Parse(data []byte) (*Registry, error) {
	var raw map[string]City
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "cities: parse yaml")
	}

	reg := &Registry{cities: make(map[string]City, len(raw))}
	for key, c := range raw {
		key = strings.ToLower(key)
		c.Key = key
		if err := c.Validate(); err != nil {
			return nil, eris.Wrapf(err, "cities: entry %q", key)
		}
		reg.cities[key] = c
		reg.keys = append(reg.keys, key)
	}
	sort.Strings(reg.keys)

	return reg, nil
}

// Get returns the city for a key. Unknown or disabled cities yield a
// ConfigurationError, which aborts only the invocation that asked.
func (r *Registry) Get(key string) (City, error) {
	c, ok := r.cities[strings.ToLower(key)]
	if !ok {
		return City{}, &model.ConfigurationError{City: key, Reason: "not configured (available: " + strings.Join(r.keys, ", ") + ")"}
	}
	if c.Disabled {
		return City{}, &model.ConfigurationError{City: key, Reason: "disabled"}
	}
	return c, nil
}

// Keys returns all enabled city keys in sorted order.
func (r *Registry) Keys() []string {
	var keys []string
	for _, k := range r.keys {
		if !r.cities[k].Disabled {
			keys = append(keys, k)
		}
	}
	return keys
}
