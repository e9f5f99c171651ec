package contract

import "context"

// Generator produces one assistant reply. Implementations retry once on
// transient failure and return trimmed text or an ErrLLMUnavailable error.
type Generator interface {
	Generate(ctx context.Context, system string, user string, history []Turn) (string, error)
}

// Geocoder returns an empty slice, not an error, when nothing matches.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]Place, error)
}

// Forecaster returns one entry per date in the inclusive range.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, startDate, endDate string) (Forecast, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string, last Intent) (Intent, error)
}
