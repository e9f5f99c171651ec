package lexicon

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	"github.com/spf13/viper"
)

//go:embed lexicon.yaml
var defaultRaw []byte

// Lexicon is the keyword data used by routing and slot extraction. It is
// configuration, not code: Load merges an optional YAML file over the defaults.
type Lexicon struct {
	Intents       map[string][]string `mapstructure:"intents"`
	Interests     map[string][]string `mapstructure:"interests"`
	Budget        map[string][]string `mapstructure:"budget"`
	Kid           KidLexicon          `mapstructure:"kid"`
	CityAliases   map[string]string   `mapstructure:"city_aliases"`
	CityStopWords []string            `mapstructure:"city_stop_words"`
	Locatives     []string            `mapstructure:"locatives"`
	ChangeCues    []string            `mapstructure:"change_cues"`
	Confirmations []string            `mapstructure:"confirmations"`
	Rejections    []string            `mapstructure:"rejections"`

	stopWords map[string]struct{}
	locatives map[string]struct{}
	aliasKeys []string
}

type KidLexicon struct {
	Positive []string `mapstructure:"positive"`
	Negative []string `mapstructure:"negative"`
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the embedded lexicon. It panics if the embedded data is broken.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := Load("")
		if err != nil {
			panic(err)
		}
		defaultLex = lex
	})
	return defaultLex
}

// Load reads the embedded lexicon and, when path is set, merges that file over it.
func Load(path string) (*Lexicon, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultRaw)); err != nil {
		return nil, fmt.Errorf("read embedded lexicon: %w", err)
	}
	if p := strings.TrimSpace(path); p != "" {
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge lexicon %s: %w", p, err)
		}
	}

	var lex Lexicon
	if err := v.Unmarshal(&lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	lex.index()
	return &lex, nil
}

func (l *Lexicon) Validate() error {
	for _, intent := range contractx.ContentIntents {
		if len(l.Intents[string(intent)]) == 0 {
			return fmt.Errorf("%w: lexicon has no keywords for intent %s", contractx.ErrValidation, intent)
		}
	}
	if len(l.Locatives) == 0 {
		return fmt.Errorf("%w: lexicon has no locatives", contractx.ErrValidation)
	}
	return nil
}

func (l *Lexicon) index() {
	l.stopWords = make(map[string]struct{}, len(l.CityStopWords))
	for _, w := range l.CityStopWords {
		l.stopWords[Normalize(w)] = struct{}{}
	}
	l.locatives = make(map[string]struct{}, len(l.Locatives))
	for _, w := range l.Locatives {
		l.locatives[Normalize(w)] = struct{}{}
	}
	l.aliasKeys = l.aliasKeys[:0]
	for k := range l.CityAliases {
		l.aliasKeys = append(l.aliasKeys, k)
	}
	// longest alias first so "new york city" wins over shorter keys
	sort.Slice(l.aliasKeys, func(i, j int) bool {
		if len(l.aliasKeys[i]) != len(l.aliasKeys[j]) {
			return len(l.aliasKeys[i]) > len(l.aliasKeys[j])
		}
		return l.aliasKeys[i] < l.aliasKeys[j]
	})
}

func (l *Lexicon) IsStopWord(word string) bool {
	_, ok := l.stopWords[Normalize(word)]
	return ok
}

func (l *Lexicon) IsLocative(word string) bool {
	_, ok := l.locatives[Normalize(word)]
	return ok
}

// Alias returns the canonical city for the first alias found in text.
func (l *Lexicon) Alias(text string) (string, bool) {
	low := Normalize(text)
	for _, k := range l.aliasKeys {
		if ContainsPhrase(low, k) {
			return l.CityAliases[k], true
		}
	}
	return "", false
}

// IntentKeywords returns the rule table for one intent.
func (l *Lexicon) IntentKeywords(intent contractx.Intent) []string {
	return l.Intents[string(intent)]
}

// Normalize lowercases text and folds typographic apostrophes.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "’", "'")
	return strings.ToLower(strings.TrimSpace(text))
}

// MatchAny reports whether text contains any phrase on word boundaries.
func MatchAny(text string, phrases []string) bool {
	low := Normalize(text)
	for _, p := range phrases {
		if ContainsPhrase(low, Normalize(p)) {
			return true
		}
	}
	return false
}

// ContainsPhrase reports whether the already-normalized text contains phrase
// with no letter or digit directly before or after it.
func ContainsPhrase(low, phrase string) bool {
	_, ok := indexPhrase(low, phrase, 0)
	return ok
}

// Mask blanks every occurrence of phrases in text. The result is normalized.
func Mask(text string, phrases []string) string {
	low := []byte(Normalize(text))
	for _, p := range phrases {
		p = Normalize(p)
		for from := 0; ; {
			start, ok := indexPhrase(string(low), p, from)
			if !ok {
				break
			}
			for i := start; i < start+len(p); i++ {
				low[i] = ' '
			}
			from = start + len(p)
		}
	}
	return string(low)
}

func indexPhrase(low, phrase string, from int) (int, bool) {
	if phrase == "" {
		return 0, false
	}
	for from <= len(low)-len(phrase) {
		idx := strings.Index(low[from:], phrase)
		if idx < 0 {
			return 0, false
		}
		start := from + idx
		if boundaryBefore(low, start) && boundaryAfter(low, start+len(phrase)) {
			return start, true
		}
		from = start + 1
	}
	return 0, false
}

// An apostrophe between letters belongs to the word: "kid" is not in "kid's".
func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(s[:i])
	if r == '\'' {
		prev, _ := utf8.DecodeLastRuneInString(s[:i-size])
		return !unicode.IsLetter(prev)
	}
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if r == '\'' {
		next, _ := utf8.DecodeRuneInString(s[i+size:])
		return !unicode.IsLetter(next)
	}
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
