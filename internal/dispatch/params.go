package dispatch

import (
	"fmt"

	"github.com/ziadkadry99/knowstore/internal/knowledge"
)

// Loose accessors for schema-validated parameter maps. Values arrive
// JSON-shaped (numbers as float64), so coercion stays permissive; type errors
// were already rejected by schema validation.

func stringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func boolParam(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func floatValue(v any) (float64, error) {
	switch vv := v.(type) {
	case float64:
		return vv, nil
	case float32:
		return float64(vv), nil
	case int:
		return float64(vv), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func floatParam(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	f, err := floatValue(v)
	if err != nil {
		return def
	}
	return f
}

func intParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	f, err := floatValue(v)
	if err != nil {
		return def
	}
	return int(f)
}

func stringSliceParam(params map[string]any, key string) []string {
	v, ok := params[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func mapParam(params map[string]any, key string) map[string]any {
	if v, ok := params[key].(map[string]any); ok {
		return v
	}
	return nil
}

func filterParam(params map[string]any, key string) knowledge.ListFilter {
	m := mapParam(params, key)
	if m == nil {
		return knowledge.ListFilter{}
	}
	return knowledge.ListFilter{
		Status:      knowledge.Status(stringParam(m, "status", "")),
		PatternType: knowledge.PatternType(stringParam(m, "pattern_type", "")),
		SourceType:  knowledge.SourceType(stringParam(m, "source_type", "")),
		Tags:        stringSliceParam(m, "tags"),
	}
}
