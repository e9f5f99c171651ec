package state

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

const (
	BudgetLow  = "low"
	BudgetMid  = "mid"
	BudgetHigh = "high"
)

// Slot field groups. A group is merged and contradicted as a unit.
const (
	FieldCity   = "city"
	FieldDates  = "dates"
	FieldMonth  = "month"
	FieldBudget = "budget"
	FieldKid    = "kid"
)

// Slots is the remembered trip context of one session. Zero values mean unset.
type Slots struct {
	City        string          `json:"city,omitempty"`
	Country     string          `json:"country,omitempty"`
	StartDate   string          `json:"start_date,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	Month       int             `json:"month,omitempty"`
	Approximate bool            `json:"approximate,omitempty"`
	Interests   []string        `json:"interests,omitempty"`
	BudgetHint  string          `json:"budget_hint,omitempty"`
	KidFriendly *bool           `json:"kid_friendly,omitempty"`
	Lat         *float64        `json:"lat,omitempty"`
	Lon         *float64        `json:"lon,omitempty"`
	LastIntent  contractx.Intent `json:"last_intent,omitempty"`
}

type Conflict struct {
	Field string
	Old   string
	New   string
}

func (s Slots) HasCoords() bool {
	return s.Lat != nil && s.Lon != nil
}

func (s Slots) HasDates() bool {
	return s.StartDate != "" && s.EndDate != ""
}

// HasTripSignal reports whether any trip slot (everything except LastIntent) is set.
func (s Slots) HasTripSignal() bool {
	return s.City != "" || s.HasDates() || s.Month != 0 || len(s.Interests) > 0 ||
		s.BudgetHint != "" || s.KidFriendly != nil
}

func (s Slots) IsZero() bool {
	return !s.HasTripSignal() && s.LastIntent == contractx.IntentUnknown && !s.HasCoords()
}

func (s Slots) Clone() Slots {
	out := s
	out.Interests = slices.Clone(s.Interests)
	if s.KidFriendly != nil {
		v := *s.KidFriendly
		out.KidFriendly = &v
	}
	if s.Lat != nil {
		v := *s.Lat
		out.Lat = &v
	}
	if s.Lon != nil {
		v := *s.Lon
		out.Lon = &v
	}
	return out
}

// WithPlace sets the city group from a resolved place.
func (s Slots) WithPlace(p contractx.Place) Slots {
	out := s.Clone()
	lat, lon := p.Lat, p.Lon
	out.City = p.City
	out.Country = p.Country
	out.Lat = &lat
	out.Lon = &lon
	return out
}

// Merge applies update on top of old. Fields the update leaves unset are kept,
// interests are unioned, and a new city without coordinates drops the old ones.
func Merge(old, update Slots) Slots {
	merged := old.Clone()
	update = update.Clone()

	if update.City != "" {
		if !strings.EqualFold(update.City, old.City) {
			merged.City = update.City
			merged.Country = update.Country
			merged.Lat, merged.Lon = nil, nil
		}
		if update.Country != "" {
			merged.Country = update.Country
		}
		if update.HasCoords() {
			merged.Lat, merged.Lon = update.Lat, update.Lon
		}
	}

	if update.StartDate != "" {
		merged.StartDate = update.StartDate
		merged.EndDate = update.EndDate
		if merged.EndDate == "" {
			merged.EndDate = update.StartDate
		}
		merged.Approximate = update.Approximate
	}
	if update.Month != 0 {
		merged.Month = update.Month
	}

	merged.Interests = unionSorted(merged.Interests, update.Interests)

	if update.BudgetHint != "" {
		merged.BudgetHint = update.BudgetHint
	}
	if update.KidFriendly != nil {
		merged.KidFriendly = update.KidFriendly
	}
	if update.LastIntent != contractx.IntentUnknown {
		merged.LastIntent = update.LastIntent
	}
	return merged
}

// Conflicts lists the slot groups where update sets a value different from an
// already-set value in old. Interests never conflict.
func Conflicts(old, update Slots) []Conflict {
	var out []Conflict
	if old.City != "" && update.City != "" && !strings.EqualFold(old.City, update.City) {
		out = append(out, Conflict{Field: FieldCity, Old: old.City, New: update.City})
	}
	if old.HasDates() && update.StartDate != "" &&
		(old.StartDate != update.StartDate || old.EndDate != update.EndDate) {
		out = append(out, Conflict{Field: FieldDates, Old: old.dateRange(), New: update.dateRange()})
	}
	if old.Month != 0 && update.Month != 0 && old.Month != update.Month && update.StartDate == "" {
		out = append(out, Conflict{Field: FieldMonth, Old: monthName(old.Month), New: monthName(update.Month)})
	}
	if old.BudgetHint != "" && update.BudgetHint != "" && old.BudgetHint != update.BudgetHint {
		out = append(out, Conflict{Field: FieldBudget, Old: old.BudgetHint, New: update.BudgetHint})
	}
	if old.KidFriendly != nil && update.KidFriendly != nil && *old.KidFriendly != *update.KidFriendly {
		out = append(out, Conflict{
			Field: FieldKid,
			Old:   strconv.FormatBool(*old.KidFriendly),
			New:   strconv.FormatBool(*update.KidFriendly),
		})
	}
	return out
}

// Only keeps the named field groups of s and clears the rest.
func (s Slots) Only(fields ...string) Slots {
	var out Slots
	for _, f := range fields {
		out = copyField(out, s, f)
	}
	return out
}

// Drop clears the named field groups of s.
func (s Slots) Drop(fields ...string) Slots {
	out := s.Clone()
	for _, f := range fields {
		out = copyField(out, Slots{}, f)
	}
	return out
}

func copyField(dst, src Slots, field string) Slots {
	src = src.Clone()
	switch field {
	case FieldCity:
		dst.City, dst.Country, dst.Lat, dst.Lon = src.City, src.Country, src.Lat, src.Lon
	case FieldDates:
		dst.StartDate, dst.EndDate, dst.Approximate = src.StartDate, src.EndDate, src.Approximate
	case FieldMonth:
		dst.Month = src.Month
	case FieldBudget:
		dst.BudgetHint = src.BudgetHint
	case FieldKid:
		dst.KidFriendly = src.KidFriendly
	}
	return dst
}

// Summary restates the known slots on one line, e.g.
// "city=Rome (Italy), dates=2025-09-10→2025-09-14, budget=low".
func (s Slots) Summary() string {
	var parts []string
	if s.City != "" {
		city := s.City
		if s.Country != "" {
			city += " (" + s.Country + ")"
		}
		parts = append(parts, "city="+city)
	}
	if s.HasDates() {
		parts = append(parts, "dates="+s.dateRange())
	}
	if s.Month != 0 {
		parts = append(parts, "month="+monthName(s.Month))
	}
	if len(s.Interests) > 0 {
		parts = append(parts, "interests="+strings.Join(s.Interests, "/"))
	}
	if s.BudgetHint != "" {
		parts = append(parts, "budget="+s.BudgetHint)
	}
	if s.KidFriendly != nil {
		parts = append(parts, "kid-friendly="+strconv.FormatBool(*s.KidFriendly))
	}
	if len(parts) == 0 {
		return "nothing yet"
	}
	return strings.Join(parts, ", ")
}

func (s Slots) dateRange() string {
	if s.EndDate == "" || s.EndDate == s.StartDate {
		return s.StartDate
	}
	return fmt.Sprintf("%s→%s", s.StartDate, s.EndDate)
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return monthNames[m-1]
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(slices.Clone(a), b...) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
