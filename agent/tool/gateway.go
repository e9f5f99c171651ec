package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	temporalx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/temporal"
	"github.com/rs/zerolog/log"
)

const DefaultWindowDays = 7

type Config struct {
	// WindowDays is the length of the representative window used for a month.
	WindowDays int `envconfig:"WINDOW_DAYS" split_words:"true" default:"7"`
}

func (c Config) Validate() error {
	if c.WindowDays < 1 || c.WindowDays > temporalx.MaxSpanDays {
		return fmt.Errorf("%w: window days must be within 1..%d", contractx.ErrValidation, temporalx.MaxSpanDays)
	}
	return nil
}

// ToolFacts is the weather summary for one turn. It is derived, never stored.
type ToolFacts struct {
	City        string
	Start       string
	End         string
	MonthLabel  string
	Approximate bool
	Unavailable bool
	Cached      bool

	High int
	Low  int
	Rain int
}

// Line renders the single "Tool facts" line shown to the model and the user.
func (f *ToolFacts) Line() string {
	if f == nil {
		return ""
	}
	var when string
	switch {
	case f.Approximate && f.MonthLabel != "":
		when = "~" + f.MonthLabel
	case f.End != "" && f.End != f.Start:
		when = f.Start + "→" + f.End
	default:
		when = f.Start
	}
	head := strings.TrimSpace("Tool facts: " + f.City + " " + when)
	if f.Unavailable {
		return head + " | live weather unavailable, no forecast data"
	}
	return fmt.Sprintf("%s | highs %d°C, lows %d°C, rain %d%%", head, f.High, f.Low, f.Rain)
}

type Option func(*Gateway)

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// Gateway decides whether a turn needs weather and fetches it at most once per
// session and key.
type Gateway struct {
	forecaster contractx.Forecaster
	windowDays int
	now        func() time.Time
}

func NewGateway(forecaster contractx.Forecaster, cfg Config, opts ...Option) (*Gateway, error) {
	if forecaster == nil {
		return nil, errors.New("forecaster is required")
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Gateway{
		forecaster: forecaster,
		windowDays: cfg.WindowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// CacheKey identifies one forecast request within a session.
func CacheKey(lat, lon float64, start, end string) string {
	return fmt.Sprintf("%.4f,%.4f,%s,%s", lat, lon, start, end)
}

// MaybeFetchWeather returns nil when the slots do not call for weather. A failed
// fetch yields facts marked Unavailable and is not cached, so a later turn may
// try again. cache is the session's weather cache and is written on success.
func (g *Gateway) MaybeFetchWeather(ctx context.Context, slots statex.Slots, cache map[string]contractx.Forecast) *ToolFacts {
	if !slots.HasCoords() {
		return nil
	}

	facts := &ToolFacts{City: slots.City}
	switch {
	case slots.HasDates():
		facts.Start, facts.End = slots.StartDate, slots.EndDate
		if slots.Approximate && slots.Month != 0 {
			facts.Approximate = true
			facts.MonthLabel = temporalx.MonthName(slots.Month)
		}
	case slots.Month != 0:
		start, end := temporalx.RepresentativeWindow(slots.Month, g.now(), g.windowDays)
		facts.Start, facts.End = start.Format(time.DateOnly), end.Format(time.DateOnly)
		facts.Approximate = true
		facts.MonthLabel = temporalx.MonthName(slots.Month)
	default:
		return nil
	}

	key := CacheKey(*slots.Lat, *slots.Lon, facts.Start, facts.End)
	if fc, ok := cache[key]; ok {
		facts.Cached = true
		summarize(facts, fc)
		return facts
	}

	fc, err := g.forecaster.Forecast(ctx, *slots.Lat, *slots.Lon, facts.Start, facts.End)
	if err == nil && fc.Len() == 0 {
		err = errors.New("forecast has no data")
	}
	if err != nil {
		log.Warn().Err(err).Str("city", slots.City).Str("key", key).Msg("forecast unavailable")
		facts.Unavailable = true
		return facts
	}
	if cache != nil {
		cache[key] = fc
	}
	summarize(facts, fc)
	return facts
}

func summarize(facts *ToolFacts, fc contractx.Forecast) {
	n := fc.Len()
	if n == 0 {
		facts.Unavailable = true
		return
	}
	facts.High = int(math.Round(mean(fc.TMax[:n])))
	facts.Low = int(math.Round(mean(fc.TMin[:n])))
	facts.Rain = int(math.Round(mean(fc.Pop[:n])))
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
