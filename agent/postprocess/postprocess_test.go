package postprocess

import (
	"strings"
	"testing"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

func TestStripReasoning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "  Just text \n", want: "Just text"},
		{name: "think segment", raw: "<think>plan the answer</think>Hello", want: "Hello"},
		{name: "case insensitive with final", raw: "<THINK>x</THINK>\n<final>Answer</final>", want: "Answer"},
		{name: "unclosed drops the rest", raw: "Hi there <reasoning>secret plan", want: "Hi there"},
		{name: "orphan close drops the prefix", raw: "secret plan</think>Visible", want: "Visible"},
		{name: "final without close", raw: "<final>Body", want: "Body"},
		{name: "several markers", raw: "<think>a</think>One <thinking>b</thinking>Two", want: "One Two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := StripReasoning(tt.raw); got != tt.want {
				t.Fatalf("StripReasoning() = %q, want %q", got, tt.want)
			}
		})
	}
}

func bullets(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(line, "- ") {
			out = append(out, line)
		}
	}
	return out
}

func TestApplyDestinationKeepsThreeAndOneQuestion(t *testing.T) {
	t.Parallel()

	raw := `<think>user wants surf</think>
Here are three options:
- Ericeira, Portugal: reliable October swells and cheap guesthouses.
- Biarritz, France: warm water into autumn. Want surf lessons?
- Fuerteventura, Spain: consistent trade winds.
- Taghazout, Morocco: budget surf camps.
Would you like flight times too? Or a budget breakdown?`

	got := Apply(raw, Options{Intent: contractx.IntentDestination})
	want := "- Ericeira, Portugal: reliable October swells and cheap guesthouses.\n" +
		"- Biarritz, France: warm water into autumn.\n" +
		"- Fuerteventura, Spain: consistent trade winds.\n" +
		"Want surf lessons?"
	if got != want {
		t.Fatalf("Apply() =\n%s\nwant\n%s", got, want)
	}
}

func TestApplyDestinationPadsAndAsks(t *testing.T) {
	t.Parallel()

	raw := "- Lisbon: mild autumn\n- Porto: river walks\nSeville is sunny in spring."

	got := Apply(raw, Options{Intent: contractx.IntentDestination})
	want := "- Lisbon: mild autumn\n- Porto: river walks\n- Seville is sunny in spring\n" +
		"Do you prefer a shorter flight time or a lower rough cost?"
	if got != want {
		t.Fatalf("Apply() =\n%s\nwant\n%s", got, want)
	}

	got = Apply("", Options{Intent: contractx.IntentDestination, MissingDates: true, MissingBudget: true})
	if len(bullets(got)) != DestinationOptions || strings.Count(got, "?") != 1 {
		t.Fatalf("empty reply must be padded:\n%s", got)
	}
	if !strings.HasSuffix(got, "Do you have travel dates in mind yet?") {
		t.Fatalf("missing dates question expected:\n%s", got)
	}
	got = Apply("- A\n- B\n- C", Options{Intent: contractx.IntentDestination, MissingBudget: true})
	if !strings.HasSuffix(got, "What budget range should I plan around?") {
		t.Fatalf("missing budget question expected:\n%s", got)
	}
}

func TestApplyAttractionsTagsAndFiltersFood(t *testing.T) {
	t.Parallel()

	raw := `Here are some ideas:
1. British Museum (indoor)
2. Hyde Park playground (kid-friendly)
3. Borough Market street food
4. Tower of London
5. Science Museum (indoor)
6. South Bank walk
Want more?`

	got := Apply(raw, Options{
		Intent:      contractx.IntentAttractions,
		KidFriendly: true,
		UserText:    "Things to do in London on Saturday with a stroller",
	})
	want := "- British Museum (indoor)\n" +
		"- Hyde Park playground (kid-friendly)\n" +
		"- Tower of London\n" +
		"- Science Museum\n" +
		"- South Bank walk"
	if got != want {
		t.Fatalf("Apply() =\n%s\nwant\n%s", got, want)
	}
}

func TestApplyAttractionsPadsToFive(t *testing.T) {
	t.Parallel()

	got := Apply("- Louvre\n- Seine cruise", Options{Intent: contractx.IntentAttractions})
	lines := bullets(got)
	if len(lines) != AttractionIdeas {
		t.Fatalf("ideas = %d, want %d:\n%s", len(lines), AttractionIdeas, got)
	}
	if strings.Count(got, IndoorTag) != 1 || strings.Contains(got, KidTag) {
		t.Fatalf("unexpected tags:\n%s", got)
	}
	if lines[2] != "- "+genericIndoor+" "+IndoorTag {
		t.Fatalf("padding idea should carry the indoor tag, got %q", lines[2])
	}
}

func TestApplyAttractionsForcesIndoor(t *testing.T) {
	t.Parallel()

	raw := "- Park walk\n- Beach day\n- Hike the ridge\n- Lookout point\n- Bike tour"

	got := Apply(raw, Options{Intent: contractx.IntentAttractions, KidFriendly: true})
	lines := bullets(got)
	if len(lines) != AttractionIdeas {
		t.Fatalf("ideas = %d:\n%s", len(lines), got)
	}
	if lines[0] != "- Park walk "+KidTag {
		t.Fatalf("kid pick = %q", lines[0])
	}
	if lines[4] != "- "+genericIndoor+" "+IndoorTag {
		t.Fatalf("indoor pick = %q", lines[4])
	}
	if strings.Count(got, KidTag) != 1 || strings.Count(got, IndoorTag) != 1 {
		t.Fatalf("unexpected tag counts:\n%s", got)
	}
}

func TestApplyAttractionsStripsKidTagsWhenNotAsked(t *testing.T) {
	t.Parallel()

	raw := "- Zoo (kid-friendly)\n- Natural History Museum (indoor)\n- Old town walk\n- Harbour cruise\n- Castle hill"

	got := Apply(raw, Options{Intent: contractx.IntentAttractions})
	if strings.Contains(got, KidTag) {
		t.Fatalf("kid tag must be removed:\n%s", got)
	}
	if !strings.Contains(got, "- Natural History Museum (indoor)") || strings.Contains(got, "?") {
		t.Fatalf("unexpected reply:\n%s", got)
	}
}

func TestApplyAttractionsKeepsFoodWhenAsked(t *testing.T) {
	t.Parallel()

	raw := "- Trattoria da Enzo\n- Vatican Museums\n- Trastevere stroll"

	got := Apply(raw, Options{Intent: contractx.IntentAttractions, UserText: "best food spots in Rome"})
	if !strings.Contains(got, "Trattoria da Enzo") {
		t.Fatalf("food idea must be kept when asked:\n%s", got)
	}
	if !strings.Contains(got, "- Vatican Museums (indoor)") {
		t.Fatalf("museum should be the indoor pick:\n%s", got)
	}
}

func TestApplyPackingSingleFactsLine(t *testing.T) {
	t.Parallel()

	raw := `Tool facts: Rome 2025-09-10→2025-09-14 | highs 30°C
Must-have:
- Passport
- Sunscreen
Nice-to-have:
- Light scarf


Activity-specific:
- Comfortable walking shoes
Anything else you need?`
	facts := "Tool facts: Rome 2025-09-10→2025-09-14 | highs 27°C, lows 18°C, rain 20%"

	got := Apply(raw, Options{Intent: contractx.IntentPacking, FactsLine: facts})
	if !strings.HasPrefix(got, facts+"\n") {
		t.Fatalf("reply must lead with the facts line:\n%s", got)
	}
	if strings.Count(got, "Tool facts") != 1 || strings.Contains(got, "?") {
		t.Fatalf("want one facts line and no questions:\n%s", got)
	}
	for _, want := range []string{"Must-have:", "Nice-to-have:", "Activity-specific:", "- Comfortable walking shoes"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("blank lines must be collapsed:\n%s", got)
	}
}

func TestApplyPackingWithoutFacts(t *testing.T) {
	t.Parallel()

	got := Apply("- **Tool facts:** sunny\n- Hat", Options{Intent: contractx.IntentPacking})
	if got != "- Hat" {
		t.Fatalf("Apply() = %q", got)
	}
}

func TestApplyQuestionLimits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		intent contractx.Intent
		raw    string
		want   string
	}{
		{
			name:   "meta has no question",
			intent: contractx.IntentMeta,
			raw:    "You're planning Rome in September. Anything else?",
			want:   "You're planning Rome in September.",
		},
		{
			name:   "support keeps one question",
			intent: contractx.IntentSupport,
			raw:    "I can help with packing. Where are you headed? When do you leave?",
			want:   "I can help with packing. Where are you headed?",
		},
		{
			name:   "support drops later question lines",
			intent: contractx.IntentSupport,
			raw:    "Happy to help!\nWhich city?\n- Any dates?",
			want:   "Happy to help!\nWhich city?",
		},
		{
			name:   "unknown intent only strips reasoning",
			intent: contractx.IntentUnknown,
			raw:    "<think>x</think>Ok? Sure?",
			want:   "Ok? Sure?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Apply(tt.raw, Options{Intent: tt.intent}); got != tt.want {
				t.Fatalf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}
