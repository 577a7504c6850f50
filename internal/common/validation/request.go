package validation

// ProcessQuerySchema accepts either a free-text user_query or an explicit
// intent with optional entities.
func ProcessQuerySchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"user_query": {
				Type:        "string",
				Description: "Free text request",
				MaxLength:   intPtr(4000),
			},
			"intent": {
				Type:        "string",
				Description: "Explicit intent label",
				MaxLength:   intPtr(100),
			},
			"entities": {
				Type:        "object",
				Description: "Slot values for an explicit intent",
				AdditionalProperties: &Property{
					Type: []string{"string", "number", "boolean", "null"},
				},
			},
		},
		AnyOf: []JSONSchema{
			{
				Required: []string{"user_query"},
				Properties: map[string]Property{
					"user_query": {Type: "string", Pattern: `\S`},
				},
			},
			{
				Required: []string{"intent"},
				Properties: map[string]Property{
					"intent": {Type: "string", MinLength: intPtr(1)},
				},
			},
		},
	}
}
