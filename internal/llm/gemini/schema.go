package gemini

import (
	"fmt"
	"sort"

	"github.com/google/generative-ai-go/genai"
)

// ToGenaiSchema converts the JSON-Schema subset used by the llm package into
// a Gemini response schema. Keywords Gemini has no field for (additionalProperties,
// minimum, ...) are dropped here; the local validator still enforces them.
func ToGenaiSchema(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}
	t, _ := m["type"].(string)
	s := &genai.Schema{}
	switch t {
	case "object":
		s.Type = genai.TypeObject
		props, _ := m["properties"].(map[string]any)
		s.Properties = make(map[string]*genai.Schema, len(props))
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pm, ok := props[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q: not an object", k)
			}
			ps, err := ToGenaiSchema(pm)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", k, err)
			}
			s.Properties[k] = ps
		}
		s.Required = stringSlice(m["required"])
	case "array":
		s.Type = genai.TypeArray
		im, ok := m["items"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("array schema without items")
		}
		items, err := ToGenaiSchema(im)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.Items = items
	case "string":
		s.Type = genai.TypeString
		s.Enum = stringSlice(m["enum"])
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", t)
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	return s, nil
}

func stringSlice(v any) []string {
	switch xs := v.(type) {
	case []string:
		return append([]string(nil), xs...)
	case []any:
		out := make([]string, 0, len(xs))
		for _, x := range xs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
