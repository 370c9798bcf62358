package record

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Fields is an unstructured named-property projection. It can contain embedded
// maps, slices, and primitives (int64, float64, string, bool).
type Fields = map[string]any

// DeepCopyAny creates a deep copy of a value or any nested structure.
func DeepCopyAny(val any) any {
	switch v := val.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, subVal := range v {
			result[k] = DeepCopyAny(subVal)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, subVal := range v {
			result[i] = DeepCopyAny(subVal)
		}
		return result

	default:
		// Primitives (and anything else) are copied directly.
		return v
	}
}

// DeepCopyFields creates a deep copy of a property projection.
func DeepCopyFields(fields Fields) Fields {
	return DeepCopyAny(fields).(map[string]any)
}

// jsonKey creates a deterministic JSON representation for content identity.
// encoding/json emits map keys in sorted order, which makes the result
// canonical for unstructured content.
func jsonKey(val any) (string, error) {
	bytes, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value to JSON: %w", err)
	}
	return string(bytes), nil
}

// DeepEqualFields checks whether two projections hold equal content using JSON
// comparison.
func DeepEqualFields(a, b Fields) bool {
	keyA, errA := jsonKey(a)
	keyB, errB := jsonKey(b)
	if errA != nil || errB != nil {
		return false
	}
	return keyA == keyB
}

// StrictEqual reports identity/strict equality between two property values.
// This is the partition-membership test of the grouping engine: comparable
// values are compared with ==, reference types (maps, slices, funcs) by
// identity, never by deep content.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}

	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	default:
		return false
	}
}

// StrictEqualFields reports whether two projections agree on every property in
// props under StrictEqual semantics.
func StrictEqualFields(a, b Fields, props []string) bool {
	for _, p := range props {
		if !StrictEqual(a[p], b[p]) {
			return false
		}
	}
	return true
}
