package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogJSON returns the tool catalog with parameter schemas rendered as
// JSON. Gateways that describe tools inside the system prompt can embed this
// directly.
func (r *Registry) CatalogJSON() string {
	var sb strings.Builder
	sb.WriteString("Available tools:\n")

	for _, tool := range r.Tools() {
		fmt.Fprintf(&sb, "\n- %s: %s\n", tool.Name(), tool.Description())
		if s := tool.Schema(); s != nil {
			schemaJSON, err := json.MarshalIndent(s, "  ", "  ")
			if err == nil {
				sb.WriteString("  Parameters: ")
				sb.Write(schemaJSON)
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

// CatalogYAML returns the tool catalog rendered as YAML, which reads better
// than JSON for deeply nested schemas.
func (r *Registry) CatalogYAML() string {
	type entry struct {
		Name        string         `yaml:"name"`
		Description string         `yaml:"description"`
		Parameters  map[string]any `yaml:"parameters,omitempty"`
	}

	entries := make([]entry, 0, r.Len())
	for _, tool := range r.Tools() {
		entries = append(entries, entry{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		})
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return r.CatalogJSON()
	}

	return "Available tools:\n\n" + string(data)
}
