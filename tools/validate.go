package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ArgumentError reports model-supplied arguments that do not fit the schema.
type ArgumentError struct {
	Tool   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("call %s failed: %s", e.Tool, e.Reason)
}

// validateArgs checks required keys, primitive types and string enums.
// Properties without a declared type are accepted as-is.
func validateArgs(def mcptypes.Tool, args map[string]any) error {
	fail := func(format string, a ...any) error {
		return &ArgumentError{Tool: def.Name, Reason: fmt.Sprintf(format, a...)}
	}

	for _, key := range def.InputSchema.Required {
		v, ok := args[key]
		if !ok || v == nil {
			return fail("missing required argument %q", key)
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := args[key]
		prop, ok := def.InputSchema.Properties[key].(map[string]any)
		if !ok || value == nil {
			continue
		}
		typ, _ := prop["type"].(string)
		if typ != "" && !hasType(value, typ) {
			return fail("argument %q must be %s, got %s", key, typ, describeType(value))
		}
		if enum := enumValues(prop["enum"]); len(enum) > 0 {
			if s, ok := value.(string); ok && !slices.Contains(enum, s) {
				return fail("argument %q must be one of %s", key, strings.Join(enum, ", "))
			}
		}
	}
	return nil
}

func hasType(v any, typ string) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := toFloat(v)
		return ok
	case "integer":
		f, ok := toFloat(v)
		return ok && f == math.Trunc(f)
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		switch v.(type) {
		case []any, []string, []map[string]any:
			return true
		}
		return false
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

func describeType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func enumValues(v any) []string {
	switch e := v.(type) {
	case []string:
		return e
	case []any:
		out := make([]string, 0, len(e))
		for _, x := range e {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads a numeric argument, accepting numeric strings as some models
// quote numbers.
func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	if f, ok := toFloat(v); ok {
		return int(f)
	}
	if s, ok := v.(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return def
}
