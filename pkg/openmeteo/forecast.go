package openmeteo

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

var _ contractx.Forecaster = (*Client)(nil)

const dailyFields = "temperature_2m_max,temperature_2m_min,precipitation_probability_max"

type forecastResponse struct {
	Daily *struct {
		Time []string   `json:"time"`
		TMax []*float64 `json:"temperature_2m_max"`
		TMin []*float64 `json:"temperature_2m_min"`
		Pop  []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// Forecast returns daily highs, lows and rain probability for the inclusive
// range. Days the API reports without a value are skipped.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, startDate, endDate string) (contractx.Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	params.Set("daily", dailyFields)
	params.Set("timezone", "UTC")

	var out forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"/forecast", params, &out); err != nil {
		return contractx.Forecast{}, err
	}
	if out.Daily == nil {
		return contractx.Forecast{}, errors.New("open-meteo: response has no daily block")
	}

	d := out.Daily
	var fc contractx.Forecast
	for i, date := range d.Time {
		if i >= len(d.TMax) || i >= len(d.TMin) || i >= len(d.Pop) {
			break
		}
		if d.TMax[i] == nil || d.TMin[i] == nil || d.Pop[i] == nil {
			continue
		}
		fc.Dates = append(fc.Dates, date)
		fc.TMax = append(fc.TMax, *d.TMax[i])
		fc.TMin = append(fc.TMin, *d.TMin[i])
		fc.Pop = append(fc.Pop, *d.Pop[i])
	}
	return fc, nil
}
