package extractentities

import (
	"fmt"
	"strings"

	"sap-address-assistant/internal/common/llm"
	"sap-address-assistant/internal/models"
)

func systemPrompt(domain models.Domain) string {
	label := domain.Label()
	return fmt.Sprintf(
		"You are an intent and entity extractor for SAP plant %s operations. "+
			"If the query is not related to SAP %ss, classify it as GeneralChat.",
		label, label,
	)
}

func userPrompt(domain models.Domain, text string) string {
	fields := domain.Fields()
	intents := make([]string, 0, len(domain.Intents())+1)
	for _, intent := range domain.Intents() {
		intents = append(intents, intent.String())
	}
	intents = append(intents, models.IntentGeneralChat.String())

	var b strings.Builder
	fmt.Fprintf(&b, "Extract the intent and entities from the user query.\n\n")
	fmt.Fprintf(&b, "Possible entities: %s\n", strings.Join(fields, ", "))
	fmt.Fprintf(&b, "Possible intents: %s\n\n", strings.Join(intents, ", "))
	b.WriteString("Return only JSON in exactly this shape:\n")
	b.WriteString("{\n  \"intent\": \"<one of the intents>\",\n  \"entities\": {\n")
	for i, field := range fields {
		sep := ","
		if i == len(fields)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: \"\"%s\n", field, sep)
	}
	b.WriteString("  }\n}\n\n")
	fmt.Fprintf(&b, "Query: %q", text)
	return b.String()
}

func buildRequest(domain models.Domain, text string) llm.Request {
	return llm.Request{
		Purpose: "extract-" + string(domain),
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt(domain)},
			{Role: llm.RoleUser, Content: userPrompt(domain, text)},
		},
		ExpectJSON: true,
	}
}
