// Package postprocess shapes raw model replies into the structure each intent
// promises. It never calls the model again; it only trims, pads and tags.
package postprocess

import (
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
)

const (
	DestinationOptions = 3
	AttractionIdeas    = 5

	IndoorTag = "(indoor)"
	KidTag    = "(kid-friendly)"
)

var (
	indoorTags = []string{"(indoor)", "(indoors)", "(indoor/rainy)", "(rainy day)", "(rainy-day)", "[indoor]"}
	kidTags    = []string{"(kid-friendly)", "(kid friendly)", "(family-friendly)", "(family friendly)", "(kids)", "[kid-friendly]"}

	foodWords   = []string{"food", "restaurant", "restaurants", "cuisine", "eat", "eating", "trattoria", "pizzeria", "gelato", "street food", "food market", "dinner", "lunch", "brunch", "dining"}
	indoorWords = []string{"museum", "museums", "gallery", "galleries", "aquarium", "indoor", "cinema", "theatre", "theater", "library", "cathedral", "church", "planetarium", "exhibition", "spa"}
	kidWords    = []string{"kid", "kids", "children", "child", "family", "playground", "zoo", "park", "aquarium", "stroller", "interactive"}
)

var fallbackDestinations = []string{
	"A coastal city with mild weather and easy day trips",
	"A smaller regional capital with lower prices and fewer crowds",
	"A nature base with hiking and scenic drives nearby",
}

const genericIndoor = "Visit the main city museum for a rainy-day break"

var fallbackIdeas = []string{
	genericIndoor,
	"Take a self-guided walking tour of the old town",
	"Spend an afternoon in the largest central park",
	"Catch the view from a well-known lookout point",
	"Explore a neighbourhood known for street art and local shops",
	"Take a short boat or river tour if one runs",
}

// Options describe the turn a reply belongs to.
type Options struct {
	Intent      contractx.Intent
	KidFriendly bool
	FactsLine   string
	UserText    string

	// MissingDates and MissingBudget pick the follow-up question for
	// destination replies that did not ask one.
	MissingDates  bool
	MissingBudget bool
}

// Apply strips reasoning segments and enforces the reply shape of opts.Intent.
func Apply(raw string, opts Options) string {
	text := StripReasoning(raw)
	switch opts.Intent {
	case contractx.IntentDestination:
		return destination(text, opts)
	case contractx.IntentAttractions:
		return attractions(text, opts)
	case contractx.IntentPacking:
		return packing(text, opts)
	case contractx.IntentMeta:
		return dropQuestions(text, 0)
	case contractx.IntentSupport:
		return dropQuestions(text, 1)
	}
	return text
}

// destination keeps three options and ends with exactly one question.
func destination(text string, opts Options) string {
	p := parse(text)
	var options []string
	question := ""
	for _, item := range p.items {
		rest, q := splitQuestion(item)
		if question == "" {
			question = q
		}
		options = appendUnique(options, []string{rest}, DestinationOptions)
	}
	for _, line := range p.prose {
		if _, q := splitQuestion(line); q != "" && question == "" {
			question = q
		}
	}
	options = appendUnique(options, harvest(p.prose), DestinationOptions)
	options = appendUnique(options, fallbackDestinations, DestinationOptions)
	if question == "" {
		question = followUp(opts)
	}
	return bulletList(options) + "\n" + question
}

func followUp(opts Options) string {
	switch {
	case opts.MissingDates:
		return "Do you have travel dates in mind yet?"
	case opts.MissingBudget:
		return "What budget range should I plan around?"
	}
	return "Do you prefer a shorter flight time or a lower rough cost?"
}

type idea struct {
	text   string
	indoor bool
	kid    bool
}

// attractions keeps five ideas, exactly one tagged indoor and, for kid-friendly
// trips, exactly one tagged kid-friendly. Questions are dropped.
func attractions(text string, opts Options) string {
	p := parse(text)
	allowFood := lexiconx.MatchAny(opts.UserText, foodWords)

	var ideas []idea
	add := func(s string) {
		if len(ideas) >= AttractionIdeas {
			return
		}
		s, _ = splitQuestion(s)
		s, indoor := stripTags(s, indoorTags)
		s, kid := stripTags(s, kidTags)
		if s == "" || (!allowFood && lexiconx.MatchAny(s, foodWords)) {
			return
		}
		for _, existing := range ideas {
			if strings.EqualFold(existing.text, s) {
				return
			}
		}
		ideas = append(ideas, idea{text: s, indoor: indoor, kid: kid})
	}
	for _, item := range p.items {
		add(item)
	}
	for _, s := range harvest(p.prose) {
		add(s)
	}
	for _, s := range fallbackIdeas {
		add(s)
	}

	indoor := pick(ideas, func(i idea) bool { return i.indoor }, func(i idea) bool {
		return lexiconx.MatchAny(i.text, indoorWords)
	})
	if indoor < 0 {
		indoor = len(ideas) - 1
		ideas[indoor] = idea{text: genericIndoor}
	}
	kid := -1
	if opts.KidFriendly {
		kid = pick(ideas, func(i idea) bool { return i.kid }, func(i idea) bool {
			return lexiconx.MatchAny(i.text, kidWords)
		})
		if kid < 0 {
			kid = 0
		}
	}

	lines := make([]string, len(ideas))
	for i, it := range ideas {
		line := it.text
		if i == indoor {
			line += " " + IndoorTag
		}
		if i == kid {
			line += " " + KidTag
		}
		lines[i] = line
	}
	return bulletList(lines)
}

// pick returns the first idea tagged by the model, else the first one whose
// text suggests the tag, else -1.
func pick(ideas []idea, tagged, suggests func(idea) bool) int {
	for i, it := range ideas {
		if tagged(it) {
			return i
		}
	}
	for i, it := range ideas {
		if suggests(it) {
			return i
		}
	}
	return -1
}

func stripTags(s string, tags []string) (string, bool) {
	found := false
	for _, tag := range tags {
		for {
			at := indexFold(s, tag)
			if at < 0 {
				break
			}
			found = true
			s = s[:at] + s[at+len(tag):]
		}
	}
	return strings.Join(strings.Fields(s), " "), found
}

// packing drops questions and model-written fact lines, then leads with the
// gateway's facts line when there is one.
func packing(text string, opts Options) string {
	var lines []string
	for _, line := range strings.Split(dropQuestions(text, 0), "\n") {
		s := strings.TrimSpace(line)
		if item, ok := bulletText(s); ok {
			s = item
		}
		s = strings.TrimLeft(s, "*_ ")
		if len(s) >= len("tool facts") && strings.EqualFold(s[:len("tool facts")], "tool facts") {
			continue
		}
		lines = append(lines, line)
	}
	body := collapse(lines)
	facts := strings.TrimSpace(opts.FactsLine)
	if facts == "" {
		return body
	}
	if body == "" {
		return facts
	}
	return facts + "\n" + body
}
