package prompt

import (
	"fmt"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
)

var (
	gratitudeWords = []string{"thanks", "thank you", "thx", "thank u", "appreciated", "appreciate it", "cheers"}
	topicWords     = []string{"city", "date", "dates", "weather", "pack", "attraction", "attractions", "place", "recommend"}
	foodWords      = []string{"food", "eat", "restaurant", "restaurants", "dinner", "lunch", "cuisine", "dining"}
)

// Input is everything one prompt is built from.
type Input struct {
	Intent    contractx.Intent
	Slots     statex.Slots
	FactsLine string
	History   []contractx.Turn
	Text      string
}

type Prompt struct {
	System  string
	User    string
	History []contractx.Turn
}

// Composer builds prompts. It has no side effects: equal inputs give equal prompts.
type Composer struct {
	set          PromptSet
	historyTurns int
}

func NewComposer(set PromptSet, historyTurns int) *Composer {
	if historyTurns <= 0 {
		historyTurns = statex.DefaultHistoryTurns
	}
	return &Composer{set: set, historyTurns: historyTurns}
}

func (c *Composer) Compose(in Input) Prompt {
	system := c.set.SystemFor(in.Intent)
	if in.Intent != contractx.IntentUnknown {
		system += "\n\nCurrent intent: " + string(in.Intent)
	}

	lines := []string{ContextHeader(in.Slots, in.Intent)}
	if facts := strings.TrimSpace(in.FactsLine); facts != "" {
		lines = append(lines, facts)
	}
	lines = append(lines, taskLine(in), "User: "+strings.TrimSpace(in.Text))

	return Prompt{
		System:  system,
		User:    strings.Join(lines, "\n"),
		History: BoundHistory(in.History, c.historyTurns),
	}
}

// ContextHeader renders the known slots on one line, skipping unset ones.
func ContextHeader(s statex.Slots, intent contractx.Intent) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}

	add("city", s.City)
	add("country", s.Country)
	if s.HasDates() {
		dates := s.StartDate
		if s.EndDate != s.StartDate {
			dates += "→" + s.EndDate
		}
		if s.Approximate {
			dates += "(approx)"
		}
		add("dates", dates)
	}
	if s.Month != 0 {
		add("month", fmt.Sprintf("%d(%s)", s.Month, Season(s.Month, s.Lat)))
	}
	add("interests", strings.Join(s.Interests, ","))
	add("budget", s.BudgetHint)
	if s.KidFriendly != nil {
		add("kid", fmt.Sprint(*s.KidFriendly))
	}
	add("intent", string(intent))

	if len(parts) == 0 {
		return "Context: none"
	}
	return "Context: " + strings.Join(parts, " ")
}

// BoundHistory returns at most limit turns, oldest first, as a copy.
func BoundHistory(history []contractx.Turn, limit int) []contractx.Turn {
	if limit <= 0 {
		limit = statex.DefaultHistoryTurns
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]contractx.Turn(nil), history...)
}

func taskLine(in Input) string {
	switch in.Intent {
	case contractx.IntentDestination:
		return "Task: Suggest exactly three destination options that fit the context, one line each with a one-line reason. End with at most one short follow-up question."
	case contractx.IntentPacking:
		return "Task: Provide must-have, nice-to-have, and activity-specific packing lists. Keep lines short. Mention the weather line above once if present. Do not ask a question."
	case contractx.IntentAttractions:
		task := "Task: List exactly five concise ideas as bullets. Tag exactly one indoor or rainy-day option with (indoor)."
		if in.Slots.KidFriendly != nil && *in.Slots.KidFriendly {
			task += " Tag exactly one pick with (kid-friendly)."
		}
		if !lexiconx.MatchAny(in.Text, foodWords) {
			task += " Avoid food and restaurant ideas."
		}
		return task + " Do not ask a question."
	case contractx.IntentMeta:
		if isGratitude(in.Text) {
			return "Task: Briefly acknowledge the thanks in one short sentence and offer further help. Do not ask a question."
		}
		return "Task: Summarize only the known context (city, dates or month, last intent). Say unknown for missing values. Do not add suggestions or a question."
	case contractx.IntentSupport:
		if isGratitude(in.Text) {
			return "Task: Briefly acknowledge the thanks in one short sentence and offer further help. Do not ask a question."
		}
		task := "Task: Respond in one or two short, warm sentences. Do not give unsolicited suggestions."
		if known := knownTrip(in.Slots); known != "" {
			return task + " Offer one short trip-focused next step for (" + known + ")."
		}
		return task + " Ask one concise question about the city and dates."
	}
	return "Task: Answer briefly and helpfully."
}

func isGratitude(text string) bool {
	return lexiconx.MatchAny(text, gratitudeWords) && !lexiconx.MatchAny(text, topicWords)
}

func knownTrip(s statex.Slots) string {
	var known []string
	if s.City != "" {
		known = append(known, "city="+s.City)
	}
	switch {
	case s.HasDates():
		known = append(known, "dates="+s.StartDate+"→"+s.EndDate)
	case s.Month != 0:
		known = append(known, fmt.Sprintf("month=%d", s.Month))
	}
	return strings.Join(known, ", ")
}
