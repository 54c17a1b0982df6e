package governance

import (
	"encoding/json"
	"reflect"
	"regexp"
)

// RedactedValue replaces the value of any sensitive key.
const RedactedValue = "***REDACTED***"

var sensitiveKey = regexp.MustCompile(`(?i)password|passwd|pwd|secret|token|credential|private|apikey|api_key`)

// Redact returns a deep copy of details with the values of sensitive keys
// replaced, at any nesting depth. The input is never modified.
//
// Typed containers (slices of maps, maps of maps, structs, pointers) are
// normalized through their JSON form before they are walked, so keys are
// matched exactly as they will be stored. A value that cannot be encoded is
// replaced as a whole.
func Redact(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		if sensitiveKey.MatchString(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return Redact(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = redactValue(e)
		}
		return out
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return Redact(m)
	case []string, string, bool, json.Number:
		return v
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer, reflect.Interface:
		generic, ok := toGeneric(v)
		if !ok {
			return RedactedValue
		}
		return redactValue(generic)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return RedactedValue
	default:
		return v
	}
}

// toGeneric re-decodes v into map[string]any / []any / scalars.
func toGeneric(v any) (any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}
