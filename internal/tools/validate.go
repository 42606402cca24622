package tools

import (
	"strings"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// ValidateToolExecution is the registry-level pre-flight check. It applies
// the same rules as Tool.Validate, so a bare Tool literal carrying only
// metadata (no handler) is enough to ask "would this call be accepted?".
func ValidateToolExecution(t *Tool, args map[string]any, ectx *schema.ExecutionContext) schema.Validation {
	if t == nil {
		return schema.Validation{Valid: false, Error: "Tool not found"}
	}
	return t.Validate(args, ectx)
}

func missingPermissions(required []string, ectx *schema.ExecutionContext) []string {
	var missing []string
	u := &schema.User{Permissions: ectx.Permissions()}
	for _, p := range required {
		if !u.HasPermission(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

func missingContext(required []string, ectx *schema.ExecutionContext) []string {
	var missing []string
	for _, key := range required {
		if !ectx.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

func missingParameters(required []string, args map[string]any) []string {
	var missing []string
	for _, name := range required {
		if v, ok := args[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func invalid(kind string, missing []string) schema.Validation {
	return schema.Validation{
		Valid:   false,
		Error:   "Missing required " + kind + ": " + strings.Join(missing, ", "),
		Missing: missing,
	}
}

// hasAllPermissions reports whether every required permission is in granted.
func hasAllPermissions(required, granted []string) bool {
	u := &schema.User{Permissions: granted}
	for _, p := range required {
		if !u.HasPermission(p) {
			return false
		}
	}
	return true
}
