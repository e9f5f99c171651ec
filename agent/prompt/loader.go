package prompt

import (
	_ "embed"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/destination.txt
	destinationRaw string

	//go:embed template/packing.txt
	packingRaw string

	//go:embed template/attractions.txt
	attractionsRaw string

	//go:embed template/meta.txt
	metaRaw string

	//go:embed template/support.txt
	supportRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System     string
	Classifier string
	Addenda    map[contractx.Intent]string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:     strings.TrimSpace(systemRaw),
		Classifier: strings.TrimSpace(classifierRaw),
		Addenda: map[contractx.Intent]string{
			contractx.IntentDestination: strings.TrimSpace(destinationRaw),
			contractx.IntentPacking:     strings.TrimSpace(packingRaw),
			contractx.IntentAttractions: strings.TrimSpace(attractionsRaw),
			contractx.IntentMeta:        strings.TrimSpace(metaRaw),
			contractx.IntentSupport:     strings.TrimSpace(supportRaw),
		},
	}
}

// SystemFor returns the base system prompt followed by the addendum for intent.
func (p PromptSet) SystemFor(intent contractx.Intent) string {
	add := p.Addenda[intent]
	if add == "" {
		return p.System
	}
	return p.System + "\n\n" + add
}
