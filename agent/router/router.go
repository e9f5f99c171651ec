package router

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	cityx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/city"
	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	temporalx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/temporal"
	"github.com/rs/zerolog/log"
)

// IntentQuestion is asked when neither stage can tell what the user wants.
const IntentQuestion = "Are you looking for destination ideas, a packing list, or things to do?"

type Kind int

const (
	KindNone Kind = iota
	KindAmbiguous
	KindContradiction
	KindUnresolved
)

func (k Kind) String() string {
	switch k {
	case KindAmbiguous:
		return "ambiguous_slot"
	case KindContradiction:
		return "contradictory_slot"
	case KindUnresolved:
		return "unresolved_slot"
	default:
		return "none"
	}
}

// CityResolver turns a candidate name into a place.
type CityResolver interface {
	Resolve(ctx context.Context, name string) cityx.Resolution
}

// Decision is the outcome of routing one turn. Update is always safe to merge,
// even when Clarification is set; values that need the user's say-so travel in
// Pending instead.
type Decision struct {
	Intent        contractx.Intent
	Update        statex.Slots
	Clarification string
	Kind          Kind
	Pending       *statex.Pending
	// Text is the request the reply should answer. It differs from the turn's
	// text when the turn only answered an earlier clarification.
	Text          string
	GeocodeFailed bool
}

func (d Decision) IsClarification() bool {
	return d.Clarification != ""
}

// Err maps the clarification kind onto the error taxonomy.
func (d Decision) Err() error {
	switch d.Kind {
	case KindAmbiguous:
		return contractx.ErrAmbiguousSlot
	case KindContradiction:
		return contractx.ErrContradictorySlot
	case KindUnresolved:
		return contractx.ErrUnresolvedSlot
	}
	if d.GeocodeFailed {
		return contractx.ErrToolUnavailable
	}
	return nil
}

type Option func(*Router)

func WithLexicon(lex *lexiconx.Lexicon) Option {
	return func(r *Router) {
		if lex != nil {
			r.lex = lex
		}
	}
}

// WithClassifier enables the model fallback stage.
func WithClassifier(c contractx.Classifier) Option {
	return func(r *Router) {
		r.classifier = c
	}
}

type Router struct {
	lex        *lexiconx.Lexicon
	rules      *Rules
	resolver   CityResolver
	classifier contractx.Classifier
}

func New(resolver CityResolver, opts ...Option) (*Router, error) {
	if resolver == nil {
		return nil, errors.New("city resolver is required")
	}
	r := &Router{
		lex:      lexiconx.Default(),
		resolver: resolver,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.rules = NewRules(r.lex)
	return r, nil
}

// Route decides the intent and slot updates for one turn. pending is the
// clarification asked on the previous turn, if any; it is answered or dropped
// here and never survives a second turn. A reply to "which city?" that names
// no intent of its own keeps the intent of the request that asked it.
func (r *Router) Route(ctx context.Context, text string, slots statex.Slots, pending *statex.Pending, now time.Time) Decision {
	text = strings.TrimSpace(text)
	if pending != nil {
		if d, ok := r.answerPending(text, slots, pending); ok {
			return d
		}
	}

	ruleIntent, tie := r.rules.Match(text)
	if ruleIntent == contractx.IntentUnknown && !tie && pending != nil && pending.Kind == statex.PendingCity {
		ruleIntent = pending.Intent
	}
	update := r.extractSlots(text, now)

	d := Decision{Text: text}
	if cand, ok := cityx.ExtractCandidate(text, r.lex); ok && !r.isCarriedCity(cand.Name, slots) {
		res := r.resolver.Resolve(ctx, cand.Name)
		switch res.Kind {
		case cityx.KindResolved:
			update = update.WithPlace(res.Place)
		case cityx.KindAmbiguous:
			return Decision{
				Intent:        slots.LastIntent,
				Clarification: cityx.Question(res.Choices),
				Kind:          KindAmbiguous,
				Pending: &statex.Pending{
					Kind:    statex.PendingChoice,
					Update:  update,
					Choices: res.Choices,
					Intent:  ruleIntent,
					Text:    text,
				},
				Text: text,
			}
		case cityx.KindNotFound:
			if cand.Strong {
				// one question per turn: values that would need a confirmation
				// are left out rather than asked about now
				if conflicts := r.conflicts(text, slots, update); len(conflicts) > 0 {
					update = update.Drop(conflictFields(conflicts)...)
				}
				return Decision{
					Intent:        slots.LastIntent,
					Update:        update,
					Clarification: fmt.Sprintf("I couldn't find a city called %s. Which city do you have in mind?", cand.Name),
					Kind:          KindUnresolved,
					Pending: &statex.Pending{
						Kind:   statex.PendingCity,
						Intent: ruleIntent,
						Text:   text,
					},
					Text: text,
				}
			}
		case cityx.KindUnavailable:
			log.Warn().Err(res.Err).Str("candidate", cand.Name).Msg("geocoding unavailable, keeping city without coordinates")
			if cand.Strong {
				update.City = cand.Name
				d.GeocodeFailed = true
			}
		}
	}

	if conflicts := r.conflicts(text, slots, update); len(conflicts) > 0 {
		out := contradiction(slots, update, conflicts, ruleIntent, text)
		out.GeocodeFailed = d.GeocodeFailed
		return out
	}
	d.Update = update

	intent := ruleIntent
	switch {
	case intent != contractx.IntentUnknown:
	case !tie && update.HasTripSignal():
		intent = followUpIntent(slots.LastIntent)
	default:
		intent = r.classify(ctx, text, slots.LastIntent)
	}
	if intent == contractx.IntentUnknown {
		intent = slots.LastIntent
	}
	if intent == contractx.IntentUnknown {
		d.Intent = slots.LastIntent
		d.Clarification = IntentQuestion
		d.Kind = KindUnresolved
		return d
	}

	d.Intent = intent
	log.Debug().
		Str("intent", string(intent)).
		Bool("tie", tie).
		Str("update", update.Summary()).
		Msg("turn routed")
	return d
}

func (r *Router) answerPending(text string, slots statex.Slots, p *statex.Pending) (Decision, bool) {
	switch p.Kind {
	case statex.PendingChoice:
		place, ok := cityx.PickChoice(text, p.Choices)
		if !ok {
			return Decision{}, false
		}
		// the pick settles the city; other groups still need a yes/no
		update := p.Update.WithPlace(place)
		conflicts := slices.DeleteFunc(r.conflicts(p.Text, slots, update), func(c statex.Conflict) bool {
			return c.Field == statex.FieldCity
		})
		if len(conflicts) > 0 {
			return contradiction(slots, update, conflicts, p.Intent, p.Text), true
		}
		return r.commitPending(slots, p, update), true

	case statex.PendingConfirm:
		rejected := lexiconx.MatchAny(text, r.lex.Rejections)
		if lexiconx.MatchAny(text, r.lex.Confirmations) && !rejected {
			return r.commitPending(slots, p, p.Update), true
		}
		if rejected && len(strings.Fields(text)) <= 4 {
			return Decision{Intent: contractx.IntentMeta, Text: text}, true
		}
	}
	return Decision{}, false
}

func (r *Router) commitPending(slots statex.Slots, p *statex.Pending, update statex.Slots) Decision {
	intent := p.Intent
	if intent == contractx.IntentUnknown {
		intent = followUpIntent(slots.LastIntent)
	}
	text := p.Text
	if text == "" {
		text = "Continue with the updated trip details."
	}
	return Decision{Intent: intent, Update: update, Text: text}
}

// conflicts lists the values in update that would overwrite set slots without
// the user asking for a change.
func (r *Router) conflicts(text string, slots, update statex.Slots) []statex.Conflict {
	if lexiconx.MatchAny(text, r.lex.ChangeCues) {
		return nil
	}
	return statex.Conflicts(slots, update)
}

// contradiction merges the uncontested part of update now and holds the
// conflicting groups for a yes/no.
func contradiction(slots, update statex.Slots, conflicts []statex.Conflict, intent contractx.Intent, text string) Decision {
	fields := conflictFields(conflicts)
	kept := update.Drop(fields...)
	return Decision{
		Intent:        slots.LastIntent,
		Update:        kept,
		Clarification: confirmQuestion(statex.Merge(slots, kept), conflicts),
		Kind:          KindContradiction,
		Pending: &statex.Pending{
			Kind:   statex.PendingConfirm,
			Update: update.Only(fields...),
			Intent: intent,
			Text:   text,
		},
		Text: text,
	}
}

// conflictFields names the groups to hold back. The month travels with the
// dates it was derived from.
func conflictFields(conflicts []statex.Conflict) []string {
	fields := make([]string, 0, len(conflicts)+1)
	for _, c := range conflicts {
		fields = append(fields, c.Field)
		if c.Field == statex.FieldDates {
			fields = append(fields, statex.FieldMonth)
		}
	}
	return fields
}

func (r *Router) classify(ctx context.Context, text string, last contractx.Intent) contractx.Intent {
	if r.classifier == nil {
		return contractx.IntentUnknown
	}
	intent, err := r.classifier.Classify(ctx, text, last)
	if err != nil {
		log.Warn().Err(err).Msg("intent classifier failed")
		return contractx.IntentUnknown
	}
	return intent
}

// isCarriedCity reports whether name is the already-resolved current city.
func (r *Router) isCarriedCity(name string, slots statex.Slots) bool {
	return slots.HasCoords() && strings.EqualFold(strings.TrimSpace(name), slots.City)
}

// extractSlots runs the lexicon and temporal extractors. City is handled by Route.
func (r *Router) extractSlots(text string, now time.Time) statex.Slots {
	var update statex.Slots

	if res := temporalx.Extract(text, now); !res.Empty() {
		if res.HasDates() {
			update.StartDate = res.StartISO()
			update.EndDate = res.EndISO()
			update.Approximate = res.Approximate
		}
		update.Month = res.Month
	}

	names := make([]string, 0, len(r.lex.Interests))
	for name := range r.lex.Interests {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if lexiconx.MatchAny(text, r.lex.Interests[name]) {
			update.Interests = append(update.Interests, name)
		}
	}

	// most specific first: a bare "budget" is low only when nothing else matched
	for _, level := range []string{statex.BudgetHigh, statex.BudgetMid, statex.BudgetLow} {
		if lexiconx.MatchAny(text, r.lex.Budget[level]) {
			update.BudgetHint = level
			break
		}
	}

	switch {
	case lexiconx.MatchAny(text, r.lex.Kid.Negative):
		v := false
		update.KidFriendly = &v
	case lexiconx.MatchAny(text, r.lex.Kid.Positive):
		v := true
		update.KidFriendly = &v
	}
	return update
}

func followUpIntent(last contractx.Intent) contractx.Intent {
	if last.IsContent() {
		return last
	}
	return contractx.IntentDestination
}

// confirmQuestion restates what is known and asks about every conflict in a
// single question.
func confirmQuestion(slots statex.Slots, conflicts []statex.Conflict) string {
	changes := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		switch c.Field {
		case statex.FieldKid:
			changes = append(changes, "kid-friendly to "+yesNo(c.New))
		default:
			changes = append(changes, c.Field+" to "+c.New)
		}
	}
	return fmt.Sprintf("So far I have: %s. Should I update %s?", slots.Summary(), joinAnd(changes))
}

func yesNo(v string) string {
	if v == "true" {
		return "yes"
	}
	return "no"
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
