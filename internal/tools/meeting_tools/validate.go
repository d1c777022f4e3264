package meeting_tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// normalizeArgs drops null values so that a null argument counts as absent.
func normalizeArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// validate checks args against the tool schema. All missing required
// arguments are reported together, in declaration order.
func (t *ToolSpec) validate(args map[string]any) error {
	result, err := t.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return invalidParams("arguments could not be validated: %v", err)
	}
	if result.Valid() {
		return nil
	}

	missing := make(map[string]bool)
	var problems []string
	for _, re := range result.Errors() {
		if re.Type() == "required" {
			if name, ok := re.Details()["property"].(string); ok {
				missing[name] = true
				continue
			}
		}
		problems = append(problems, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}

	var parts []string
	if len(missing) > 0 {
		var names []string
		for _, p := range t.Params {
			if missing[p.Name] {
				names = append(names, p.Name)
			}
		}
		parts = append(parts, "Missing required arguments: "+strings.Join(names, ", "))
	}
	if len(problems) > 0 {
		parts = append(parts, "Invalid arguments: "+strings.Join(problems, "; "))
	}
	return invalidParams("%s", strings.Join(parts, ". "))
}
