package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	metricsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/metrics"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	temporalx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/temporal"
	toolx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/tool"
)

// WeatherGateway is the tool stage seen by the graph.
type WeatherGateway interface {
	MaybeFetchWeather(ctx context.Context, slots statex.Slots, cache map[string]contractx.Forecast) *toolx.ToolFacts
}

func FetchToolFacts(ctx context.Context, in *GraphState, gateway WeatherGateway, m *metricsx.Metrics) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	slots := in.Session.Slots
	if in.Decision.GeocodeFailed && !slots.HasCoords() {
		in.Facts = unavailableFacts(slots)
	} else {
		in.Facts = gateway.MaybeFetchWeather(ctx, slots, in.Session.Weather)
	}

	switch f := in.Facts; {
	case f == nil:
	case f.Unavailable:
		m.ObserveToolFetch(metricsx.OutcomeUnavailable)
	case f.Cached:
		m.ObserveToolFetch(metricsx.OutcomeCached)
	default:
		m.ObserveToolFetch(metricsx.OutcomeFetched)
	}
	return in, nil
}

// unavailableFacts is the disclaimer used when the city could not be geocoded,
// so no forecast can be asked for.
func unavailableFacts(slots statex.Slots) *toolx.ToolFacts {
	if !slots.HasDates() && slots.Month == 0 {
		return nil
	}
	facts := &toolx.ToolFacts{
		City:        slots.City,
		Start:       slots.StartDate,
		End:         slots.EndDate,
		Unavailable: true,
	}
	if slots.Month != 0 && (slots.Approximate || !slots.HasDates()) {
		facts.Approximate = true
		facts.MonthLabel = temporalx.MonthName(slots.Month)
	}
	return facts
}
