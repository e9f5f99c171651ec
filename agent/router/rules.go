package router

import (
	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
)

// Rules is the deterministic first routing stage: a keyword table lookup with
// no notion of confidence.
type Rules struct {
	lex *lexiconx.Lexicon
	// talk is phrasing about the conversation itself ("what can you do",
	// "switch to"); it never counts as a content keyword
	talk []string
}

func NewRules(lex *lexiconx.Lexicon) *Rules {
	if lex == nil {
		lex = lexiconx.Default()
	}
	var talk []string
	talk = append(talk, lex.IntentKeywords(contractx.IntentSupport)...)
	talk = append(talk, lex.IntentKeywords(contractx.IntentMeta)...)
	talk = append(talk, lex.ChangeCues...)
	return &Rules{lex: lex, talk: talk}
}

// Match returns the single intent the keyword tables point at. Content intents
// are checked first, on the text with meta, support and change phrasing
// blanked out; meta and support only count when no content intent matched. tie reports that two or more content intents matched, in which
// case intent is IntentUnknown.
func (r *Rules) Match(text string) (intent contractx.Intent, tie bool) {
	content := lexiconx.Mask(text, r.talk)
	var hits []contractx.Intent
	for _, candidate := range contractx.ContentIntents {
		if lexiconx.MatchAny(content, r.lex.IntentKeywords(candidate)) {
			hits = append(hits, candidate)
		}
	}
	switch len(hits) {
	case 1:
		return hits[0], false
	case 0:
	default:
		return contractx.IntentUnknown, true
	}

	if lexiconx.MatchAny(text, r.lex.IntentKeywords(contractx.IntentSupport)) {
		return contractx.IntentSupport, false
	}
	if lexiconx.MatchAny(text, r.lex.IntentKeywords(contractx.IntentMeta)) {
		return contractx.IntentMeta, false
	}
	return contractx.IntentUnknown, false
}
