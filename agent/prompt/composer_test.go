package prompt

import (
	"fmt"
	"strings"
	"testing"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
)

func ptr[T any](v T) *T { return &v }

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.System == "" || set.Classifier == "" {
		t.Fatal("base prompts must not be empty")
	}
	for _, intent := range []contractx.Intent{
		contractx.IntentDestination, contractx.IntentPacking, contractx.IntentAttractions,
		contractx.IntentMeta, contractx.IntentSupport,
	} {
		if set.Addenda[intent] == "" {
			t.Fatalf("missing addendum for %s", intent)
		}
	}
	// the classifier prompt goes through an f-string template
	if strings.ContainsAny(set.Classifier, "{}") {
		t.Fatal("classifier prompt must not contain braces")
	}
}

func TestContextHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		slots  statex.Slots
		intent contractx.Intent
		want   string
	}{
		{name: "empty", want: "Context: none"},
		{
			name: "full",
			slots: statex.Slots{
				City: "Rome", Country: "Italy", StartDate: "2025-09-10", EndDate: "2025-09-14",
				Interests: []string{"food", "museum"}, BudgetHint: "low", KidFriendly: ptr(true),
			},
			intent: contractx.IntentPacking,
			want:   "Context: city=Rome country=Italy dates=2025-09-10→2025-09-14 interests=food,museum budget=low kid=true intent=packing",
		},
		{
			name:   "month with season",
			slots:  statex.Slots{Month: 10, Interests: []string{"surf"}, BudgetHint: "low"},
			intent: contractx.IntentDestination,
			want:   "Context: month=10(autumn) interests=surf budget=low intent=destination",
		},
		{
			name:  "southern hemisphere",
			slots: statex.Slots{City: "Sydney", Lat: ptr(-33.87), Lon: ptr(151.21), Month: 1},
			want:  "Context: city=Sydney month=1(summer)",
		},
		{
			name:  "approximate single day",
			slots: statex.Slots{StartDate: "2025-09-01", EndDate: "2025-09-01", Approximate: true},
			want:  "Context: dates=2025-09-01(approx)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ContextHeader(tt.slots, tt.intent); got != tt.want {
				t.Fatalf("ContextHeader() = %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestComposePacking(t *testing.T) {
	t.Parallel()

	c := NewComposer(LoadPromptSet(), 4)
	facts := "Tool facts: Rome 2025-09-10→2025-09-14 | highs 27°C, lows 18°C, rain 20%"
	history := make([]contractx.Turn, 0, 10)
	for i := 0; i < 10; i++ {
		history = append(history, contractx.Turn{Role: contractx.RoleUser, Text: fmt.Sprintf("turn %d", i)})
	}

	p := c.Compose(Input{
		Intent:    contractx.IntentPacking,
		Slots:     statex.Slots{City: "Rome", StartDate: "2025-09-10", EndDate: "2025-09-14"},
		FactsLine: facts,
		History:   history,
		Text:      "What to pack for Rome Sep 10 to Sep 14",
	})

	lines := strings.Split(p.User, "\n")
	if len(lines) != 4 {
		t.Fatalf("user prompt lines = %d, want 4:\n%s", len(lines), p.User)
	}
	if !strings.HasPrefix(lines[0], "Context: city=Rome") || lines[1] != facts {
		t.Fatalf("unexpected header/facts:\n%s", p.User)
	}
	if !strings.HasPrefix(lines[2], "Task: Provide must-have") || lines[3] != "User: What to pack for Rome Sep 10 to Sep 14" {
		t.Fatalf("unexpected task/user lines:\n%s", p.User)
	}
	if strings.Count(p.User, "Tool facts:") != 1 {
		t.Fatalf("expected exactly one Tool facts line:\n%s", p.User)
	}
	if !strings.Contains(p.System, "Intent: packing.") || !strings.HasSuffix(p.System, "Current intent: packing") {
		t.Fatalf("system prompt lacks the packing addendum:\n%s", p.System)
	}
	if len(p.History) != 4 || p.History[0].Text != "turn 6" || p.History[3].Text != "turn 9" {
		t.Fatalf("History = %+v, want the last four turns oldest first", p.History)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	t.Parallel()

	c := NewComposer(LoadPromptSet(), 6)
	in := Input{
		Intent: contractx.IntentAttractions,
		Slots:  statex.Slots{City: "London", KidFriendly: ptr(true)},
		Text:   "Things to do in London on Saturday with a stroller",
	}
	a, b := c.Compose(in), c.Compose(in)
	if a.System != b.System || a.User != b.User {
		t.Fatal("Compose() must be deterministic")
	}
	if strings.Contains(a.User, "Tool facts") {
		t.Fatalf("no facts line expected:\n%s", a.User)
	}
	for _, want := range []string{"exactly five", "(indoor)", "(kid-friendly)", "Avoid food"} {
		if !strings.Contains(a.User, want) {
			t.Fatalf("attractions task missing %q:\n%s", want, a.User)
		}
	}
}

func TestTaskLineVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    Input
		want  string
		avoid string
	}{
		{
			name:  "attractions without kids or food filter",
			in:    Input{Intent: contractx.IntentAttractions, Text: "best food spots in Lisbon"},
			avoid: "kid-friendly",
		},
		{
			name: "meta thanks",
			in:   Input{Intent: contractx.IntentMeta, Text: "thanks a lot!"},
			want: "acknowledge the thanks",
		},
		{
			name: "meta recap",
			in:   Input{Intent: contractx.IntentMeta, Text: "what do you know so far"},
			want: "Summarize only the known context",
		},
		{
			name: "support with known trip",
			in:   Input{Intent: contractx.IntentSupport, Text: "I'm confused", Slots: statex.Slots{City: "Rome", Month: 10}},
			want: "next step for (city=Rome, month=10)",
		},
		{
			name: "support from scratch",
			in:   Input{Intent: contractx.IntentSupport, Text: "help"},
			want: "Ask one concise question about the city and dates",
		},
		{
			name:  "thanks with a topic is not gratitude",
			in:    Input{Intent: contractx.IntentMeta, Text: "thanks, what about the weather"},
			avoid: "acknowledge the thanks",
		},
	}
	for _, tt := range tests {
		got := taskLine(tt.in)
		if tt.want != "" && !strings.Contains(got, tt.want) {
			t.Fatalf("%s: taskLine() = %q, want it to contain %q", tt.name, got, tt.want)
		}
		if tt.avoid != "" && strings.Contains(got, tt.avoid) {
			t.Fatalf("%s: taskLine() = %q, must not contain %q", tt.name, got, tt.avoid)
		}
	}
	if got := taskLine(Input{Intent: contractx.IntentAttractions, Text: "best food spots"}); strings.Contains(got, "Avoid food") {
		t.Fatalf("food request must not be filtered: %q", got)
	}
}

func TestSeason(t *testing.T) {
	t.Parallel()

	if got := Season(7, nil); got != "summer" {
		t.Fatalf("Season(7, nil) = %q", got)
	}
	if got := Season(7, ptr(-34.6)); got != "winter" {
		t.Fatalf("Season(7, south) = %q", got)
	}
	if got := Season(13, nil); got != "" {
		t.Fatalf("Season(13) = %q", got)
	}
}

func TestBoundHistoryCopies(t *testing.T) {
	t.Parallel()

	h := []contractx.Turn{{Role: contractx.RoleUser, Text: "a"}}
	got := BoundHistory(h, 6)
	got[0].Text = "changed"
	if h[0].Text != "a" {
		t.Fatal("BoundHistory must return a copy")
	}
}
