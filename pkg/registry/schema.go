package registry

// IntentRegistry describes the dispatchable intents and their preconditions.
type IntentRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	Intents     []IntentSpec `json:"intents"`
}

type IntentSpec struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"displayName"`
	Description    string   `json:"description"`
	Domain         string   `json:"domain"`
	RequiredFields []string `json:"requiredFields"`
	Tags           []string `json:"tags,omitempty"`
}
