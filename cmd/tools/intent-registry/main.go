// cmd/tools/intent-registry/main.go
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sap-address-assistant/internal/models"
	"sap-address-assistant/pkg/registry"
)

const defaultPath = "configs/intents.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return errors.New("missing command")
	}

	switch args[0] {
	case "require":
		cmd := flag.NewFlagSet("require", flag.ContinueOnError)
		path := cmd.String("path", defaultPath, "Path to registry file")
		intent := cmd.String("intent", "", "Intent name (e.g., CreateTelephoneAddress)")
		fields := cmd.String("fields", "", "Comma separated required fields (e.g., PLANT,TELEPHONE)")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		if *intent == "" {
			cmd.Usage()
			return errors.New("intent is required for require")
		}
		if err := setRequired(*path, *intent, splitFields(*fields)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s: %s requires %s\n", *path, *intent, *fields)

	case "show":
		cmd := flag.NewFlagSet("show", flag.ContinueOnError)
		path := cmd.String("path", "", "Path to registry file (defaults when empty)")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.Load(*path)
		if err != nil {
			return err
		}
		show(out, reg)

	case "validate":
		cmd := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := cmd.String("path", defaultPath, "Path to registry file")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d intents.\n", len(reg.Intents))

	case "help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// setRequired rewrites the required fields of one intent in the file at path,
// creating the file when it does not exist. The result must load cleanly.
func setRequired(path, name string, fields []string) error {
	intent, ok := models.LookupIntent(name)
	if !ok {
		return fmt.Errorf("unknown intent %q", name)
	}

	var file registry.IntentRegistry
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		file.Version = registry.Default().Version
	case err != nil:
		return fmt.Errorf("read registry: %w", err)
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse registry: %w", err)
		}
	}

	updated := false
	for i := range file.Intents {
		if file.Intents[i].Name == intent.String() {
			file.Intents[i].RequiredFields = fields
			updated = true
		}
	}
	if !updated {
		file.Intents = append(file.Intents, registry.IntentSpec{
			Name:           intent.String(),
			RequiredFields: fields,
		})
	}
	file.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	if err := saveRegistry(&file, path); err != nil {
		return err
	}
	if _, err := registry.LoadRegistry(path); err != nil {
		if data != nil {
			_ = os.WriteFile(path, data, 0644)
		} else {
			_ = os.Remove(path)
		}
		return err
	}
	return nil
}

func saveRegistry(reg *registry.IntentRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func show(out io.Writer, reg *registry.IntentRegistry) {
	fmt.Fprintf(out, "Registry version %s\n", reg.Version)
	for _, spec := range reg.Intents {
		required := "-"
		if len(spec.RequiredFields) > 0 {
			required = strings.Join(spec.RequiredFields, ",")
		}
		fmt.Fprintf(out, "  %-24s %-10s %s\n", spec.Name, spec.Domain, required)
	}
}

func splitFields(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToUpper(strings.TrimSpace(f)); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: intent-registry <command> [flags]

Commands:
  require   Set the required fields of an intent
  show      Print the effective registry
  validate  Validate a registry file
  help      Show this help message

Examples:
  intent-registry require -path configs/intents.json -intent CreateTelephoneAddress -fields PLANT,TELEPHONE
  intent-registry show -path configs/intents.json
  intent-registry validate -path configs/intents.json

Use 'intent-registry <command> -h' for more information about a command.
`)
}
