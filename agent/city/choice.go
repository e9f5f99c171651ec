package city

import (
	"strconv"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
)

var ordinals = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"last": -1,
}

// PickChoice maps a reply to a "Did you mean ..." question onto one of the
// offered places, by ordinal ("2", "the second") or by name. A name must match
// exactly one choice.
func PickChoice(text string, choices []contractx.Place) (contractx.Place, bool) {
	if len(choices) == 0 {
		return contractx.Place{}, false
	}
	low := lexiconx.Normalize(text)

	for _, word := range strings.FieldsFunc(low, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '#'
	}) {
		if n, err := strconv.Atoi(word); err == nil {
			if n >= 1 && n <= len(choices) {
				return choices[n-1], true
			}
			continue
		}
		if n, ok := ordinals[word]; ok {
			if n == -1 {
				n = len(choices)
			}
			if n <= len(choices) {
				return choices[n-1], true
			}
		}
	}

	// most specific field first: the region separates same-named cities
	fields := []func(contractx.Place) string{
		func(p contractx.Place) string { return p.Region },
		func(p contractx.Place) string { return p.Country },
		func(p contractx.Place) string { return p.City },
	}
	for _, field := range fields {
		var hits []int
		for i, c := range choices {
			name := lexiconx.Normalize(field(c))
			if name != "" && lexiconx.ContainsPhrase(low, name) {
				hits = append(hits, i)
			}
		}
		if len(hits) == 1 {
			return choices[hits[0]], true
		}
	}
	return contractx.Place{}, false
}

// Question renders the one-line clarification for ambiguous choices, e.g.
// "Did you mean Springfield (Illinois, United States), ... or ...?".
func Question(choices []contractx.Place) string {
	labels := make([]string, 0, len(choices))
	for _, c := range choices {
		if where := c.Where(); where != "" {
			labels = append(labels, c.City+" ("+where+")")
			continue
		}
		labels = append(labels, c.City)
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return "Did you mean " + labels[0] + "?"
	}
	return "Did you mean " + strings.Join(labels[:len(labels)-1], ", ") + " or " + labels[len(labels)-1] + "?"
}
