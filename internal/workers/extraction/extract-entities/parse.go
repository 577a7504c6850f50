package extractentities

import (
	"encoding/json"
	"errors"
	"strings"

	"sap-address-assistant/internal/models"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// parseExtraction applies the lenient parsing policy to a raw model reply.
// Intents outside the domain fall back to GeneralChat with entities kept.
func parseExtraction(domain models.Domain, raw string) (models.ExtractionResult, error) {
	candidate := raw
	if strings.Contains(raw, "```") {
		candidate = longestBracedFragment(strings.Split(raw, "```"))
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return models.ExtractionResult{}, errNoJSONObject
	}

	var parsed rawExtraction
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &parsed); err != nil {
		return models.ExtractionResult{}, err
	}

	entities := models.EntityMapFromAny(parsed.Entities)
	return models.ExtractionResult{
		Intent:   resolveIntent(domain, parsed.Intent),
		Entities: entities,
	}, nil
}

func longestBracedFragment(fragments []string) string {
	best := ""
	for _, f := range fragments {
		if !strings.Contains(f, "{") || !strings.Contains(f, "}") {
			continue
		}
		if len(f) > len(best) {
			best = f
		}
	}
	return best
}

func resolveIntent(domain models.Domain, value interface{}) models.Intent {
	label, ok := value.(string)
	if !ok {
		return models.IntentGeneralChat
	}
	intent, known := models.LookupIntent(strings.TrimSpace(label))
	if !known || intent.Domain() != domain {
		return models.IntentGeneralChat
	}
	return intent
}
