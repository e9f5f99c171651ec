package city

import (
	"strings"
	"unicode"
	"unicode/utf8"

	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
	temporalx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/temporal"
)

const maxNameWords = 3

// Candidate is a city name found in free text. Strong candidates were named
// deliberately (after a locative, as an alias, or as a terse answer); weak ones
// are capitalized words that merely look like a place.
type Candidate struct {
	Name   string
	Strong bool
}

type token struct {
	text      string
	clauseEnd bool
	sentEnd   bool
}

// ExtractCandidate returns the most likely city mentioned in text.
func ExtractCandidate(text string, lex *lexiconx.Lexicon) (Candidate, bool) {
	if lex == nil {
		lex = lexiconx.Default()
	}
	if name, ok := lex.Alias(text); ok {
		return Candidate{Name: name, Strong: true}, true
	}

	toks := tokenize(text)
	if len(toks) == 0 {
		return Candidate{}, false
	}

	for i, tok := range toks {
		if !lex.IsLocative(tok.text) || tok.clauseEnd {
			continue
		}
		if name := capitalizedRun(toks[i+1:], lex); name != "" {
			return Candidate{Name: name, Strong: true}, true
		}
	}

	if len(toks) <= maxNameWords {
		if name := capitalizedRun(toks, lex); name != "" && wordCount(name) == len(toks) {
			return Candidate{Name: name, Strong: true}, true
		}
	}

	for i := 1; i < len(toks); i++ {
		if toks[i-1].sentEnd || toks[i].text == "I" {
			continue
		}
		if name := capitalizedRun(toks[i:], lex); name != "" {
			return Candidate{Name: name, Strong: false}, true
		}
	}
	return Candidate{}, false
}

// capitalizedRun joins up to three leading capitalized tokens, stopping at
// stop words, calendar words and clause punctuation.
func capitalizedRun(toks []token, lex *lexiconx.Lexicon) string {
	var words []string
	for _, tok := range toks {
		if len(words) == maxNameWords || !isCapitalized(tok.text) {
			break
		}
		if lex.IsStopWord(tok.text) || lex.IsLocative(tok.text) || temporalx.IsCalendarWord(tok.text) {
			break
		}
		words = append(words, tok.text)
		if tok.clauseEnd {
			break
		}
	}
	return strings.Join(words, " ")
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	out := make([]token, 0, len(fields))
	for _, f := range fields {
		core := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		last, _ := utf8.DecodeLastRuneInString(f)
		tok := token{
			text:      core,
			clauseEnd: strings.ContainsRune(",.;:!?", last),
			sentEnd:   strings.ContainsRune(".!?", last),
		}
		if core == "" {
			// bare punctuation such as a dash still breaks a name
			if len(out) > 0 {
				out[len(out)-1].clauseEnd = true
			}
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
