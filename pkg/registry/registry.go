package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"sap-address-assistant/internal/models"
)

const defaultVersion = "1.0"

// Default returns the compiled-in registry: every write intent requires PLANT.
func Default() *IntentRegistry {
	reg := &IntentRegistry{Version: defaultVersion}
	for _, intent := range models.AllIntents {
		spec := IntentSpec{
			Name:        intent.String(),
			DisplayName: displayName(intent),
			Domain:      string(intent.Domain()),
		}
		if intent.IsWrite() {
			spec.RequiredFields = []string{models.KeyField}
		}
		reg.Intents = append(reg.Intents, spec)
	}
	return reg
}

// LoadRegistry reads a JSON registry and merges it over the defaults.
// Entries naming unknown intents, or required fields outside the intent's
// domain, are rejected.
func LoadRegistry(path string) (*IntentRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var override IntentRegistry
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	reg := Default()
	if override.Version != "" {
		reg.Version = override.Version
	}
	reg.LastUpdated = override.LastUpdated

	for _, spec := range override.Intents {
		intent, ok := models.LookupIntent(spec.Name)
		if !ok {
			return nil, fmt.Errorf("registry %s: unknown intent %q", path, spec.Name)
		}
		if err := checkFields(intent, spec.RequiredFields); err != nil {
			return nil, fmt.Errorf("registry %s: %w", path, err)
		}
		reg.replace(intent, spec)
	}
	return reg, nil
}

// Load returns the defaults when path is empty.
func Load(path string) (*IntentRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadRegistry(path)
}

// Lookup returns the spec for intent.
func (r *IntentRegistry) Lookup(intent models.Intent) (IntentSpec, bool) {
	for _, spec := range r.Intents {
		if spec.Name == intent.String() {
			return spec, true
		}
	}
	return IntentSpec{}, false
}

// RequiredFields returns the fields that must be non-empty before intent executes.
func (r *IntentRegistry) RequiredFields(intent models.Intent) []string {
	spec, ok := r.Lookup(intent)
	if !ok {
		return nil
	}
	return spec.RequiredFields
}

func (r *IntentRegistry) replace(intent models.Intent, spec IntentSpec) {
	spec.Domain = string(intent.Domain())
	for i := range r.Intents {
		if r.Intents[i].Name != spec.Name {
			continue
		}
		if spec.DisplayName == "" {
			spec.DisplayName = r.Intents[i].DisplayName
		}
		// PLANT stays mandatory for writes whatever the file says.
		if intent.IsWrite() && !contains(spec.RequiredFields, models.KeyField) {
			spec.RequiredFields = append([]string{models.KeyField}, spec.RequiredFields...)
		}
		r.Intents[i] = spec
		return
	}
}

func checkFields(intent models.Intent, fields []string) error {
	allowed := intent.Domain().Fields()
	for _, f := range fields {
		if !contains(allowed, f) {
			return fmt.Errorf("intent %s: field %q is not a %s field", intent, f, intent.Domain().Label())
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func displayName(intent models.Intent) string {
	switch intent.Action() {
	case models.ActionGet:
		return "Get " + intent.Domain().Label()
	case models.ActionCreate:
		return "Create " + intent.Domain().Label()
	case models.ActionUpdate:
		return "Update " + intent.Domain().Label()
	default:
		return "General chat"
	}
}
