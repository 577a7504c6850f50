package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// EntityMap holds slot values extracted from a request. Absent keys read as "".
type EntityMap map[string]string

// Get returns the trimmed value of key.
func (e EntityMap) Get(key string) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e[key])
}

// Clean returns a copy without empty values.
func (e EntityMap) Clean() EntityMap {
	out := make(EntityMap, len(e))
	for k, v := range e {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Missing lists the required keys whose value is empty, in the given order.
func (e EntityMap) Missing(required []string) []string {
	var missing []string
	for _, key := range required {
		if e.Get(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Keys returns the populated keys sorted alphabetically.
func (e EntityMap) Keys() []string {
	keys := make([]string, 0, len(e))
	for k, v := range e {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ToRecord converts the map into a remote write payload.
func (e EntityMap) ToRecord() map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// EntityMapFromAny normalizes loosely typed JSON values into strings.
// null becomes "", numbers and booleans are formatted, nested values are
// re-encoded as JSON.
func EntityMapFromAny(raw map[string]interface{}) EntityMap {
	out := make(EntityMap, len(raw))
	for k, v := range raw {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
