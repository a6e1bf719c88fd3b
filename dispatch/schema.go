package dispatch

import (
	"encoding/json"
	"sort"
)

// ArgType is the declared type of a single tool argument.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgNumber  ArgType = "number"
	ArgInteger ArgType = "integer"
	ArgBoolean ArgType = "boolean"
	ArgObject  ArgType = "object"
	ArgArray   ArgType = "array"
	ArgAny     ArgType = "any"
)

// ArgSpec declares one argument of a tool schema.
type ArgSpec struct {
	Type        ArgType `json:"type"`
	Required    bool    `json:"required,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Schema maps argument names to their specifications. Keys are unique by
// construction.
type Schema map[string]ArgSpec

// Validate checks args against the schema and returns an
// *InvalidArgumentsError listing missing, extra, and mistyped keys.
// A nil return means the arguments conform.
func (s Schema) Validate(tool string, args map[string]any) error {
	var missing, extra, mistyped []string

	for name, spec := range s {
		value, ok := args[name]
		if !ok {
			if spec.Required {
				missing = append(missing, name)
			}
			continue
		}
		if !matchesType(value, spec.Type) {
			mistyped = append(mistyped, name)
		}
	}

	for name := range args {
		if _, ok := s[name]; !ok {
			extra = append(extra, name)
		}
	}

	if len(missing) == 0 && len(extra) == 0 && len(mistyped) == 0 {
		return nil
	}

	// Deterministic ordering for error messages and tests.
	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(mistyped)

	return &InvalidArgumentsError{
		DispatchError: DispatchError{Message: "invalid arguments for tool " + tool},
		Tool:          tool,
		Missing:       missing,
		Extra:         extra,
		Mistyped:      mistyped,
	}
}

// matchesType reports whether a decoded JSON value conforms to the
// declared argument type. Arguments arrive as the product of
// encoding/json unmarshaling into map[string]any, so numbers are float64
// and json.Number is handled for callers that configured it.
func matchesType(value any, t ArgType) bool {
	switch t {
	case ArgAny, "":
		return true
	case ArgString:
		_, ok := value.(string)
		return ok
	case ArgBoolean:
		_, ok := value.(bool)
		return ok
	case ArgNumber:
		switch value.(type) {
		case float64, int, int64, json.Number:
			return true
		}
		return false
	case ArgInteger:
		switch n := value.(type) {
		case int, int64:
			return true
		case float64:
			return n == float64(int64(n))
		case json.Number:
			_, err := n.Int64()
			return err == nil
		}
		return false
	case ArgObject:
		_, ok := value.(map[string]any)
		return ok
	case ArgArray:
		_, ok := value.([]any)
		return ok
	default:
		return false
	}
}

// Parameters renders the schema as a JSON-Schema-shaped map suitable for
// sending to an LLM as a tool definition.
func (s Schema) Parameters() map[string]any {
	properties := make(map[string]any, len(s))
	var required []string
	for name, spec := range s {
		prop := map[string]any{}
		if spec.Type != "" && spec.Type != ArgAny {
			prop["type"] = string(spec.Type)
		}
		if spec.Description != "" {
			prop["description"] = spec.Description
		}
		properties[name] = prop
		if spec.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	params := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return params
}
