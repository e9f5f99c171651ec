// Package gmaps geocodes city names with the Google Maps Geocoding API.
package gmaps

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	"googlemaps.github.io/maps"
)

var _ contractx.Geocoder = (*Geocoder)(nil)

type Config struct {
	APIKey   string `split_words:"true"`
	Language string `split_words:"true" default:"en"`
	BaseURL  string `split_words:"true"`
	Limit    int    `split_words:"true" default:"3"`
}

type Geocoder struct {
	client   *maps.Client
	language string
	limit    int
}

func New(cfg Config) (*Geocoder, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("google maps api key is required")
	}
	opts := []maps.ClientOption{maps.WithAPIKey(key)}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, maps.WithBaseURL(base))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create google maps client: %w", err)
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = 3
	}
	return &Geocoder{client: client, language: cfg.Language, limit: limit}, nil
}

// Geocode keeps results that name a city. Google does not report population,
// so several matches are never resolved by size alone.
func (g *Geocoder) Geocode(ctx context.Context, query string) ([]contractx.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  query,
		Language: g.language,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, nil
		}
		return nil, fmt.Errorf("google geocode: %w", err)
	}

	places := make([]contractx.Place, 0, len(results))
	for _, r := range results {
		p, ok := toPlace(r)
		if !ok {
			continue
		}
		places = append(places, p)
		if len(places) == g.limit {
			break
		}
	}
	return places, nil
}

func toPlace(r maps.GeocodingResult) (contractx.Place, bool) {
	p := contractx.Place{
		Lat: r.Geometry.Location.Lat,
		Lon: r.Geometry.Location.Lng,
	}
	for _, c := range r.AddressComponents {
		switch {
		case slices.Contains(c.Types, "locality"):
			p.City = c.LongName
		case slices.Contains(c.Types, "postal_town") && p.City == "":
			p.City = c.LongName
		case slices.Contains(c.Types, "administrative_area_level_1"):
			p.Region = c.LongName
		case slices.Contains(c.Types, "country"):
			p.Country = c.LongName
		}
	}
	return p, p.City != ""
}
