package sap

// extractResults unwraps an OData collection: v2 "d.results", a bare "d"
// array, or v4 "value". Anything else yields an empty list.
func extractResults(payload map[string]interface{}) []map[string]interface{} {
	if d, ok := payload["d"]; ok {
		switch v := d.(type) {
		case map[string]interface{}:
			if results, ok := v["results"].([]interface{}); ok {
				return toRecords(results)
			}
		case []interface{}:
			return toRecords(v)
		}
	}
	if value, ok := payload["value"].([]interface{}); ok {
		return toRecords(value)
	}
	return []map[string]interface{}{}
}

// unwrapEntity returns the "d" object of a single-entity response, dropping
// the __metadata block.
func unwrapEntity(payload map[string]interface{}) map[string]interface{} {
	entity := payload
	if d, ok := payload["d"].(map[string]interface{}); ok {
		entity = d
	}
	out := make(map[string]interface{}, len(entity))
	for k, v := range entity {
		if k == "__metadata" {
			continue
		}
		out[k] = v
	}
	return out
}

func toRecords(items []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]interface{}); ok {
			out = append(out, unwrapEntity(rec))
		}
	}
	return out
}
