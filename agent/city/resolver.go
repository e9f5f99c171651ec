package city

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

const (
	DefaultMaxChoices     = 3
	DefaultDominanceRatio = 10.0
)

type Kind int

const (
	KindNotFound Kind = iota
	KindResolved
	KindAmbiguous
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindAmbiguous:
		return "ambiguous"
	case KindUnavailable:
		return "unavailable"
	default:
		return "not_found"
	}
}

// Resolution is the outcome of resolving one candidate. Place is set only for
// KindResolved, Choices only for KindAmbiguous and Err only for KindUnavailable.
type Resolution struct {
	Kind    Kind
	Place   contractx.Place
	Choices []contractx.Place
	Err     error
}

type Option func(*Resolver)

func WithMaxChoices(n int) Option {
	return func(r *Resolver) {
		if n >= 2 {
			r.maxChoices = n
		}
	}
}

// WithDominanceRatio sets how many times larger the first match must be than
// the runner-up to win without asking. A ratio <= 1 disables the shortcut.
func WithDominanceRatio(ratio float64) Option {
	return func(r *Resolver) {
		r.dominance = ratio
	}
}

type Resolver struct {
	geocoder   contractx.Geocoder
	maxChoices int
	dominance  float64
}

func NewResolver(geocoder contractx.Geocoder, opts ...Option) (*Resolver, error) {
	if geocoder == nil {
		return nil, errors.New("geocoder is required")
	}
	r := &Resolver{
		geocoder:   geocoder,
		maxChoices: DefaultMaxChoices,
		dominance:  DefaultDominanceRatio,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *Resolver) Resolve(ctx context.Context, name string) Resolution {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resolution{Kind: KindNotFound}
	}

	places, err := r.geocoder.Geocode(ctx, name)
	if err != nil {
		return Resolution{
			Kind: KindUnavailable,
			Err:  fmt.Errorf("%w: geocode %q: %v", contractx.ErrToolUnavailable, name, err),
		}
	}

	distinct := dedupe(places)
	switch {
	case len(distinct) == 0:
		return Resolution{Kind: KindNotFound}
	case len(distinct) == 1 || r.dominates(distinct[0], distinct[1]):
		return Resolution{Kind: KindResolved, Place: distinct[0]}
	}

	if len(distinct) > r.maxChoices {
		distinct = distinct[:r.maxChoices]
	}
	return Resolution{Kind: KindAmbiguous, Choices: distinct}
}

func (r *Resolver) dominates(first, second contractx.Place) bool {
	if r.dominance <= 1 || first.Population <= 0 {
		return false
	}
	return float64(first.Population) >= r.dominance*float64(second.Population)
}

// dedupe drops blank names and repeated city/region/country triples, keeping
// provider order.
func dedupe(places []contractx.Place) []contractx.Place {
	seen := make(map[string]struct{}, len(places))
	out := make([]contractx.Place, 0, len(places))
	for _, p := range places {
		if strings.TrimSpace(p.City) == "" {
			continue
		}
		key := strings.ToLower(p.City + "|" + p.Region + "|" + p.Country)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
