package openmeteo

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

var _ contractx.Geocoder = (*Client)(nil)

type geocodingResponse struct {
	Results []struct {
		Name       string  `json:"name"`
		Latitude   float64 `json:"latitude"`
		Longitude  float64 `json:"longitude"`
		Country    string  `json:"country"`
		Admin1     string  `json:"admin1"`
		Population int     `json:"population"`
	} `json:"results"`
}

// Geocode returns up to Count matches in the API's relevance order.
func (c *Client) Geocode(ctx context.Context, query string) ([]contractx.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("name", query)
	params.Set("count", strconv.Itoa(c.count))
	params.Set("language", c.language)
	params.Set("format", "json")

	var out geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL+"/search", params, &out); err != nil {
		return nil, err
	}

	places := make([]contractx.Place, 0, len(out.Results))
	for _, r := range out.Results {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		places = append(places, contractx.Place{
			City:       r.Name,
			Region:     r.Admin1,
			Country:    r.Country,
			Lat:        r.Latitude,
			Lon:        r.Longitude,
			Population: r.Population,
		})
	}
	return places, nil
}
