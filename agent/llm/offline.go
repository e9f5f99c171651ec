package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var _ einomodel.BaseChatModel = (*OfflineModel)(nil)

var currentIntentRe = regexp.MustCompile(`Current intent: (\w+)`)

// classifierInputPrefix starts every classifier request.
const classifierInputPrefix = "Previous intent:"

var contextKeys = map[string]bool{
	"city": true, "country": true, "dates": true, "month": true,
	"interests": true, "budget": true, "kid": true, "intent": true,
}

var offlineDestinations = map[string][]string{
	"surf": {
		"Ericeira, Portugal: consistent autumn swells and cheap guesthouses",
		"Biarritz, France: warm water late in the season and easy rail links",
		"Taghazout, Morocco: budget surf camps and dry weather",
	},
	"hiking": {
		"Madeira, Portugal: levada trails with mild temperatures",
		"Dolomites, Italy: hut-to-hut routes with cable car shortcuts",
		"Julian Alps, Slovenia: lake bases with day hikes",
	},
	"beach": {
		"Algarve, Portugal: sandy coves and reliable sunshine",
		"Crete, Greece: long beach season and village food",
		"Valencia, Spain: city beach with good transit",
	},
}

var defaultDestinations = []string{
	"Lisbon, Portugal: mild weather and good value",
	"Valencia, Spain: beaches with easy public transport",
	"Split, Croatia: old town walks and island day trips",
}

// OfflineModel is a deterministic chat model for demos and tests without
// network access. It answers in the shape the current intent asks for.
type OfflineModel struct{}

func NewOfflineModel() *OfflineModel {
	return &OfflineModel{}
}

func (m *OfflineModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var system, user string
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = msg.Content
		case schema.User:
			user = msg.Content
		}
	}

	if strings.HasPrefix(strings.TrimSpace(user), classifierInputPrefix) {
		return schema.AssistantMessage(`{"intent": "unknown"}`, nil), nil
	}

	intent := contractx.IntentUnknown
	if match := currentIntentRe.FindStringSubmatch(system); match != nil {
		intent, _ = contractx.ParseIntent(match[1])
	}
	return schema.AssistantMessage(offlineReply(intent, parseContext(user)), nil), nil
}

func (m *OfflineModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// parseContext reads the "Context:" header line back into key/value pairs.
func parseContext(user string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(user, "\n") {
		header, ok := strings.CutPrefix(strings.TrimSpace(line), "Context:")
		if !ok {
			continue
		}
		key := ""
		for _, tok := range strings.Fields(header) {
			if k, v, found := strings.Cut(tok, "="); found && contextKeys[k] {
				key = k
				out[key] = v
				continue
			}
			if key != "" {
				out[key] += " " + tok
			}
		}
		break
	}
	return out
}

func offlineReply(intent contractx.Intent, ctx map[string]string) string {
	city := ctx["city"]
	if city == "" {
		city = "the city"
	}

	switch intent {
	case contractx.IntentDestination:
		options := defaultDestinations
		for _, interest := range strings.Split(ctx["interests"], ",") {
			if picks, ok := offlineDestinations[interest]; ok {
				options = picks
				break
			}
		}
		return bulletLines(options) + "\nWould you prefer a shorter flight time or a lower rough cost?"
	case contractx.IntentPacking:
		return strings.Join([]string{
			"Must-have:",
			"- Passport and travel documents",
			"- Comfortable walking shoes",
			"- Phone charger and plug adapter",
			"Nice-to-have:",
			"- Light rain jacket",
			"- Reusable water bottle",
			"Activity-specific:",
			"- Day bag for sightseeing in " + city,
		}, "\n")
	case contractx.IntentAttractions:
		ideas := []string{
			"Walk the historic centre of " + city,
			"Visit the main art museum (indoor)",
			"Picnic in the biggest park",
			"Climb to a viewpoint at sunset",
			"Take a river or harbour cruise",
		}
		if ctx["kid"] == "true" {
			ideas[2] += " (kid-friendly)"
		}
		return bulletLines(ideas)
	case contractx.IntentMeta:
		if len(ctx) == 0 {
			return "I don't have any trip details yet."
		}
		return fmt.Sprintf("So far I know: city %s, dates %s, month %s.",
			orUnknown(ctx["city"]), orUnknown(ctx["dates"]), orUnknown(ctx["month"]))
	case contractx.IntentSupport:
		return "I can suggest destinations, build packing lists and find things to do. Which city and dates are you thinking about?"
	}
	return "I can help with destinations, packing and things to do."
}

func bulletLines(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
