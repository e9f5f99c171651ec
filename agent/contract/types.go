package contract

import "strings"

type Intent string

const (
	IntentUnknown     Intent = ""
	IntentDestination Intent = "destination"
	IntentPacking     Intent = "packing"
	IntentAttractions Intent = "attractions"
	IntentMeta        Intent = "meta"
	IntentSupport     Intent = "support"
)

// ContentIntents are the intents that produce trip content, in rule priority order.
var ContentIntents = []Intent{IntentPacking, IntentAttractions, IntentDestination}

func ParseIntent(raw string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentDestination:
		return IntentDestination, true
	case IntentPacking:
		return IntentPacking, true
	case IntentAttractions:
		return IntentAttractions, true
	case IntentMeta:
		return IntentMeta, true
	case IntentSupport:
		return IntentSupport, true
	}
	return IntentUnknown, false
}

func (i Intent) IsContent() bool {
	return i == IntentDestination || i == IntentPacking || i == IntentAttractions
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Place is one geocoding match. Region is the first-level subdivision (state,
// province) and is what tells same-named cities apart.
type Place struct {
	City       string  `json:"city"`
	Region     string  `json:"region,omitempty"`
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Population int     `json:"population,omitempty"`
}

// Where renders "Region, Country" with empty parts left out.
func (p Place) Where() string {
	var parts []string
	for _, v := range []string{p.Region, p.Country} {
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, p.City) {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// Label renders "City, Region, Country" or just the city when nothing else is known.
func (p Place) Label() string {
	if where := p.Where(); where != "" {
		return p.City + ", " + where
	}
	return p.City
}

type Forecast struct {
	Dates []string  `json:"dates"`
	TMax  []float64 `json:"tmax"`
	TMin  []float64 `json:"tmin"`
	Pop   []float64 `json:"pop"`
}

func (f Forecast) Len() int {
	n := len(f.Dates)
	for _, l := range []int{len(f.TMax), len(f.TMin), len(f.Pop)} {
		if l < n {
			n = l
		}
	}
	return n
}
