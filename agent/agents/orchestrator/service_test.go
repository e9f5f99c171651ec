package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	cityx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/city"
	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	metricsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/metrics"
	nodex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/nodes/orchestrator"
	promptx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/prompt"
	routerx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/router"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	toolx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/tool"
	"github.com/prometheus/client_golang/prometheus"
)

var testNow = time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)

type fakeGeocoder struct {
	mu     sync.Mutex
	places map[string][]contractx.Place
	err    error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, query string) ([]contractx.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.places[query]), nil
}

type fakeForecaster struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeForecaster) Forecast(ctx context.Context, lat, lon float64, start, end string) (contractx.Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return contractx.Forecast{}, f.err
	}
	return contractx.Forecast{
		Dates: []string{start, end},
		TMax:  []float64{26.6, 27.4},
		TMin:  []float64{18.2, 17.8},
		Pop:   []float64{10, 30},
	}, nil
}

func (f *fakeForecaster) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type generateCall struct {
	system  string
	user    string
	history []contractx.Turn
}

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []generateCall
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string, history []contractx.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{system: system, user: user, history: slices.Clone(history)})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) Calls() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type fixture struct {
	o          *Orchestrator
	store      *statex.MemoryStore
	forecaster *fakeForecaster
	generator  *fakeGenerator
	geocoder   *fakeGeocoder
	registry   *prometheus.Registry
}

func newFixture(t *testing.T, reply string, historyTurns int) *fixture {
	t.Helper()

	geo := &fakeGeocoder{places: map[string][]contractx.Place{
		"Rome": {
			{City: "Rome", Region: "Lazio", Country: "Italy", Lat: 41.89, Lon: 12.48, Population: 2318895},
			{City: "Rome", Region: "Georgia", Country: "United States", Lat: 34.26, Lon: -85.16, Population: 36303},
		},
		"Paris":  {{City: "Paris", Country: "France", Lat: 48.85, Lon: 2.35, Population: 2138551}},
		"London": {{City: "London", Country: "United Kingdom", Lat: 51.51, Lon: -0.13, Population: 8961989}},
		"Springfield": {
			{City: "Springfield", Region: "Missouri", Country: "United States", Lat: 37.2, Lon: -93.3, Population: 169176},
			{City: "Springfield", Region: "Massachusetts", Country: "United States", Lat: 42.1, Lon: -72.6, Population: 155929},
			{City: "Springfield", Region: "Illinois", Country: "United States", Lat: 39.8, Lon: -89.6, Population: 114394},
		},
	}}
	resolver, err := cityx.NewResolver(geo)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	router, err := routerx.New(resolver)
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}

	clock := func() time.Time { return testNow }
	forecaster := &fakeForecaster{}
	gateway, err := toolx.NewGateway(forecaster, toolx.Config{}, toolx.WithClock(clock))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	store := statex.NewMemoryStore()
	generator := &fakeGenerator{reply: reply}
	registry := prometheus.NewRegistry()

	o, err := New(store, router, gateway,
		promptx.NewComposer(promptx.LoadPromptSet(), historyTurns),
		generator,
		Config{HistoryTurns: historyTurns},
		WithClock(clock),
		WithMetrics(metricsx.New(registry)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{o: o, store: store, forecaster: forecaster, generator: generator, geocoder: geo, registry: registry}
}

func (f *fixture) session(t *testing.T, id string) *statex.Session {
	t.Helper()

	sess, err := f.store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", id, err)
	}
	return sess
}

// counterValue reads one labelled counter from the registry, 0 when absent.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func bulletLines(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(line, "- ") {
			out = append(out, line)
		}
	}
	return out
}

const packingReply = `Must-have:
- Passport
- Walking shoes
Tool facts: Rome is warm
Nice-to-have:
- Sunglasses
Activity-specific:
- Scarf for church visits
Do you want a checklist?`

func TestHandleTurnEmptyMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "unused", 6)

	if got := f.o.HandleTurn(context.Background(), "s1", "   "); got != "" {
		t.Fatalf("HandleTurn() = %q, want empty reply", got)
	}
	if _, err := f.store.Load(context.Background(), "s1"); !errors.Is(err, statex.ErrSessionNotFound) {
		t.Fatalf("empty message must not create a session, Load() error = %v", err)
	}
	if len(f.generator.Calls()) != 0 {
		t.Fatal("generator must not be called")
	}
}

func TestHandleTurnInvalidSessionFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "unused", 6)

	if got := f.o.HandleTurn(context.Background(), "  ", "hello"); got != FallbackReply {
		t.Fatalf("HandleTurn() = %q, want fallback reply", got)
	}
}

func TestHandleTurnSurfDestination(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `- Ericeira, Portugal: reliable October swells
- Biarritz, France: warm water into autumn
- Taghazout, Morocco: budget surf camps
- Lisbon, Portugal: city breaks`, 6)

	reply := f.o.HandleTurn(context.Background(), "s1", "Surf near Europe in October, budget friendly")

	if got := bulletLines(reply); len(got) != 3 {
		t.Fatalf("reply must have three options:\n%s", reply)
	}
	if strings.Count(reply, "?") != 1 || !strings.HasSuffix(reply, "?") {
		t.Fatalf("reply must end with exactly one question:\n%s", reply)
	}

	sess := f.session(t, "s1")
	s := sess.Slots
	if s.Month != 10 || !slices.Contains(s.Interests, "surf") || s.BudgetHint != statex.BudgetLow {
		t.Fatalf("slots = %+v", s)
	}
	if s.LastIntent != contractx.IntentDestination {
		t.Fatalf("LastIntent = %q, want destination", s.LastIntent)
	}
	if len(sess.History) != 2 || sess.History[1].Text != reply {
		t.Fatalf("history = %+v", sess.History)
	}
	if f.forecaster.Calls() != 0 {
		t.Fatal("no forecast without a city")
	}

	calls := f.generator.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].user, "interests=surf") {
		t.Fatalf("generator calls = %+v", calls)
	}
	if got := counterValue(t, f.registry, "travel_assistant_turns_total", "destination"); got != 1 {
		t.Fatalf("turns metric = %v, want 1", got)
	}
}

func TestHandleTurnRomePacking(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)

	reply := f.o.HandleTurn(context.Background(), "s1", "What to pack for Rome Sep 10 to Sep 14")

	wantFacts := "Tool facts: Rome 2025-09-10→2025-09-14 | highs 27°C, lows 18°C, rain 20%"
	if !strings.HasPrefix(reply, wantFacts+"\n") {
		t.Fatalf("reply must start with the facts line:\n%s", reply)
	}
	if strings.Count(reply, "Tool facts") != 1 {
		t.Fatalf("reply must carry exactly one facts line:\n%s", reply)
	}
	if strings.Contains(reply, "?") {
		t.Fatalf("packing reply must not ask questions:\n%s", reply)
	}
	for _, want := range []string{"Must-have:", "Activity-specific:"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("reply missing %q:\n%s", want, reply)
		}
	}

	s := f.session(t, "s1").Slots
	if s.City != "Rome" || s.Country != "Italy" || !s.HasCoords() || s.StartDate != "2025-09-10" || s.EndDate != "2025-09-14" {
		t.Fatalf("slots = %+v", s)
	}

	calls := f.generator.Calls()
	if !strings.Contains(calls[0].user, wantFacts) {
		t.Fatalf("prompt must carry the facts line:\n%s", calls[0].user)
	}

	f.o.HandleTurn(context.Background(), "s1", "What else should I pack for Rome?")
	if got := f.forecaster.Calls(); got != 1 {
		t.Fatalf("forecast calls = %d, want 1 for a repeated key", got)
	}
	if got := counterValue(t, f.registry, "travel_assistant_weather_lookups_total", metricsx.OutcomeCached); got != 1 {
		t.Fatalf("cached lookups = %v, want 1", got)
	}
}

func TestHandleTurnLondonStroller(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `- Walk along the South Bank
- Visit the Natural History Museum
- Ride the London Eye
- Picnic in Hyde Park
- See the Changing of the Guard
Want restaurant tips too?`, 6)

	reply := f.o.HandleTurn(context.Background(), "s1", "Things to do in London on Saturday with a stroller")

	ideas := bulletLines(reply)
	if len(ideas) != 5 {
		t.Fatalf("reply must have five ideas:\n%s", reply)
	}
	if strings.Count(reply, "(indoor)") != 1 || strings.Count(reply, "(kid-friendly)") != 1 {
		t.Fatalf("reply must tag one indoor and one kid-friendly idea:\n%s", reply)
	}
	if strings.Contains(reply, "?") {
		t.Fatalf("attractions reply must not ask questions:\n%s", reply)
	}

	s := f.session(t, "s1").Slots
	if s.KidFriendly == nil || !*s.KidFriendly || s.City != "London" || s.LastIntent != contractx.IntentAttractions {
		t.Fatalf("slots = %+v", s)
	}
}

func TestHandleTurnParisContradiction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	ctx := context.Background()

	f.o.HandleTurn(ctx, "s1", "What to pack for Rome Sep 10 to Sep 14")
	reply := f.o.HandleTurn(ctx, "s1", "Actually I meant Paris")

	if strings.Count(reply, "?") != 1 || !strings.Contains(reply, "city to Paris") || !strings.Contains(reply, "city=Rome") {
		t.Fatalf("reply must restate and confirm once:\n%s", reply)
	}
	sess := f.session(t, "s1")
	if sess.Slots.City != "Rome" || sess.Pending == nil {
		t.Fatalf("city must stay Rome until confirmed, session = %+v", sess)
	}
	if len(sess.History) != 2 {
		t.Fatalf("clarification must not enter history, got %d turns", len(sess.History))
	}
	if len(f.generator.Calls()) != 1 {
		t.Fatal("clarification must not call the generator")
	}

	f.o.HandleTurn(ctx, "s1", "yes")

	sess = f.session(t, "s1")
	if sess.Slots.City != "Paris" || sess.Slots.Country != "France" || sess.Pending != nil {
		t.Fatalf("confirmed change not committed, session = %+v", sess)
	}
	if sess.Slots.StartDate != "2025-09-10" {
		t.Fatalf("dates must survive the city change, slots = %+v", sess.Slots)
	}
	if len(f.generator.Calls()) != 2 {
		t.Fatalf("generator calls = %d, want 2", len(f.generator.Calls()))
	}
	if got := counterValue(t, f.registry, "travel_assistant_clarifications_total", "contradictory_slot"); got != 1 {
		t.Fatalf("clarification metric = %v, want 1", got)
	}
}

func TestHandleTurnSpringfieldAmbiguity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "- Walk downtown\n- Visit the art museum\n- Tour the old capitol\n- Catch a ball game\n- Hike a nearby trail", 6)
	ctx := context.Background()

	reply := f.o.HandleTurn(ctx, "s1", "Things to do in Springfield in October")
	for _, want := range []string{"Missouri", "Massachusetts"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("reply must list candidates, missing %q:\n%s", want, reply)
		}
	}
	if strings.Count(reply, "?") != 1 {
		t.Fatalf("reply must ask exactly once:\n%s", reply)
	}
	if s := f.session(t, "s1").Slots; !s.IsZero() {
		t.Fatalf("no slot may be committed before a pick, slots = %+v", s)
	}

	reply = f.o.HandleTurn(ctx, "s1", "the second one")
	if len(bulletLines(reply)) != 5 {
		t.Fatalf("picked city must get the attractions reply:\n%s", reply)
	}
	s := f.session(t, "s1").Slots
	if s.City != "Springfield" || s.Lat == nil || *s.Lat != 42.1 || s.Month != 10 {
		t.Fatalf("slots = %+v", s)
	}
	if s.LastIntent != contractx.IntentAttractions {
		t.Fatalf("LastIntent = %q, want attractions", s.LastIntent)
	}

	calls := f.generator.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].user, "Things to do in Springfield in October") {
		t.Fatalf("the original request must be answered, calls = %+v", calls)
	}
}

func TestHandleTurnModelUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "", 6)
	f.generator.err = fmt.Errorf("%w: upstream down", contractx.ErrLLMUnavailable)

	reply := f.o.HandleTurn(context.Background(), "s1", "What to pack for Rome Sep 10 to Sep 14")
	if reply != nodex.Apology {
		t.Fatalf("HandleTurn() = %q, want apology", reply)
	}

	sess := f.session(t, "s1")
	if sess.Slots.City != "Rome" || sess.Slots.StartDate != "2025-09-10" {
		t.Fatalf("slots must be kept after a model failure, slots = %+v", sess.Slots)
	}
	if len(sess.History) != 2 || sess.History[1].Text != nodex.Apology {
		t.Fatalf("history = %+v", sess.History)
	}
}

func TestHandleTurnForecastUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	f.forecaster.err = errors.New("timeout")

	reply := f.o.HandleTurn(context.Background(), "s1", "What to pack for Rome Sep 10 to Sep 14")
	if !strings.HasPrefix(reply, "Tool facts: Rome 2025-09-10→2025-09-14 | live weather unavailable") {
		t.Fatalf("reply must carry the disclaimer:\n%s", reply)
	}
	if sess := f.session(t, "s1"); len(sess.Weather) != 0 {
		t.Fatalf("failed lookups must not be cached: %+v", sess.Weather)
	}
}

func TestHandleTurnGeocoderDown(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	f.geocoder.err = errors.New("dial tcp: timeout")

	reply := f.o.HandleTurn(context.Background(), "s1", "What to pack for Rome Sep 10 to Sep 14")
	if !strings.Contains(reply, "live weather unavailable") {
		t.Fatalf("reply must carry the disclaimer:\n%s", reply)
	}
	s := f.session(t, "s1").Slots
	if s.City != "Rome" || s.HasCoords() {
		t.Fatalf("city must be kept without coordinates, slots = %+v", s)
	}
	if f.forecaster.Calls() != 0 {
		t.Fatal("no forecast without coordinates")
	}
}

func TestHandleTurnHistoryIsBounded(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 4)
	ctx := context.Background()

	f.o.HandleTurn(ctx, "s1", "What to pack for Rome Sep 10 to Sep 14")
	for i := 0; i < 4; i++ {
		f.o.HandleTurn(ctx, "s1", "What should I pack?")
		if n := len(f.session(t, "s1").History); n > 4 {
			t.Fatalf("history has %d turns, want at most 4", n)
		}
	}
	for _, call := range f.generator.Calls() {
		if len(call.history) > 4 {
			t.Fatalf("prompt history has %d turns, want at most 4", len(call.history))
		}
	}
}

func TestHandleTurnSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%2)
			f.o.HandleTurn(ctx, id, "What to pack for Rome Sep 10 to Sep 14")
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"s0", "s1"} {
		sess := f.session(t, id)
		if len(sess.History) != 6 {
			t.Fatalf("session %s history = %d turns, want 6", id, len(sess.History))
		}
	}
	if got := f.forecaster.Calls(); got != 2 {
		t.Fatalf("forecast calls = %d, want one per session", got)
	}
	f.o.locks.mu.Lock()
	defer f.o.locks.mu.Unlock()
	if len(f.o.locks.locks) != 0 {
		t.Fatalf("session locks leaked: %d", len(f.o.locks.locks))
	}
}

func TestHandleTurnPaddedSessionIDSharesLock(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 20)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "s1"
			if i%2 == 0 {
				id = " s1 "
			}
			f.o.HandleTurn(ctx, id, "What to pack for Rome Sep 10 to Sep 14")
		}(i)
	}
	wg.Wait()

	if n := len(f.session(t, "s1").History); n != 20 {
		t.Fatalf("history = %d turns, want 20 (no lost updates)", n)
	}
	f.o.locks.mu.Lock()
	defer f.o.locks.mu.Unlock()
	if len(f.o.locks.locks) != 0 {
		t.Fatalf("session locks leaked: %d", len(f.o.locks.locks))
	}
}

func TestHandleTurnDropsCorruptPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	ctx := context.Background()

	lat, lon := 41.89, 12.48
	sess := statex.NewSession("s1", testNow)
	sess.Slots = statex.Slots{
		City:      "Rome",
		Country:   "Italy",
		Lat:       &lat,
		Lon:       &lon,
		StartDate: "2025-09-10",
		EndDate:   "2025-09-14",
	}
	sess.Pending = &statex.Pending{Kind: statex.PendingChoice}
	if err := f.store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reply := f.o.HandleTurn(ctx, "s1", "What should I pack?")
	if reply == FallbackReply || !strings.Contains(reply, "Must-have") {
		t.Fatalf("HandleTurn() = %q, want the packing reply", reply)
	}
	got := f.session(t, "s1")
	if got.Pending != nil {
		t.Fatalf("Pending = %+v, want dropped", got.Pending)
	}
	if got.Slots.City != "Rome" || got.Slots.StartDate != "2025-09-10" {
		t.Fatalf("slots = %+v, want the stored trip kept", got.Slots)
	}
}

func TestHandleTurnUnknownCityKeepsIntent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	ctx := context.Background()

	reply := f.o.HandleTurn(ctx, "s1", "What should I pack for Xyzzyville Sep 10 to Sep 14")
	if !strings.Contains(reply, "Xyzzyville") || strings.Count(reply, "?") != 1 {
		t.Fatalf("HandleTurn() = %q, want one question about the unknown city", reply)
	}

	f.o.HandleTurn(ctx, "s1", "Rome")
	s := f.session(t, "s1").Slots
	if s.LastIntent != contractx.IntentPacking {
		t.Fatalf("LastIntent = %q, want packing carried over", s.LastIntent)
	}
	if s.City != "Rome" || s.StartDate != "2025-09-10" || s.EndDate != "2025-09-14" {
		t.Fatalf("slots = %+v", s)
	}
	calls := f.generator.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].system, "Intent: packing.") {
		t.Fatalf("want one packing generation, calls = %+v", calls)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, packingReply, 6)
	ctx := context.Background()

	f.o.HandleTurn(ctx, "s1", "What to pack for Rome Sep 10 to Sep 14")
	if err := f.o.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := f.store.Load(ctx, "s1"); !errors.Is(err, statex.ErrSessionNotFound) {
		t.Fatalf("Load() after reset error = %v", err)
	}
	if err := f.o.Reset(ctx, "missing"); err != nil {
		t.Fatalf("Reset() of unknown session error = %v", err)
	}
	if err := f.o.Reset(ctx, " "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Reset() error = %v, want ErrInvalidSession", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "", 6)
	composer := promptx.NewComposer(promptx.LoadPromptSet(), 6)

	if _, err := New(nil, f.o.router, f.o.gateway, composer, f.generator, Config{}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := New(f.store, f.o.router, f.o.gateway, composer, nil, Config{}); err == nil {
		t.Fatal("expected error without generator")
	}
	if _, err := New(f.store, f.o.router, f.o.gateway, composer, f.generator, Config{HistoryTurns: 1}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("New() error = %v, want ErrValidation", err)
	}
}
