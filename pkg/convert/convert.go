package convert

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var errNotMap = fmt.Errorf("input data is not a map")
var errNotStringValue = fmt.Errorf("map value is not a string")
var errNotSlice = fmt.Errorf("input data is not a slice")

// ToStringMap converts map[string]any or map[string]string to map[string]string.
// Scalar values in a map[string]any are formatted with ToString; nested values are rejected.
// Returns nil map if input is nil.
func ToStringMap(data any) (map[string]string, error) {
	if data == nil {
		return nil, nil
	}
	if m, ok := data.(map[string]string); ok {
		return m, nil
	}
	if mAny, ok := data.(map[string]any); ok {
		result := make(map[string]string, len(mAny))
		for k, v := range mAny {
			s, ok := ToString(v)
			if !ok {
				return nil, fmt.Errorf("key '%s': %w (type %T)", k, errNotStringValue, v)
			}
			result[k] = s
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: input type %T", errNotMap, data)
}

// ToSliceOfString converts []string and []any to []string, formatting
// elements with fmt. Returns an error if the input is not a slice.
func ToSliceOfString(data any) ([]string, error) {
	if data == nil {
		return []string{}, nil
	}

	if slice, ok := data.([]string); ok {
		return slice, nil
	}

	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: input type %T", errNotSlice, data)
	}

	result := make([]string, 0, val.Len())
	for i := 0; i < val.Len(); i++ {
		item := val.Index(i).Interface()
		if s, ok := ToString(item); ok {
			result = append(result, s)
			continue
		}
		result = append(result, fmt.Sprintf("%v", item))
	}
	return result, nil
}

// ToString formats scalar values. JSON numbers decoded as float64 are
// printed without a trailing ".0" so numeric ids stay readable.
func ToString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

// Lookup walks a dotted path ("spec.owner.name") through nested maps.
func Lookup(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup followed by ToString; empty strings count as absent.
func LookupString(data map[string]any, path string) (string, bool) {
	v, ok := Lookup(data, path)
	if !ok {
		return "", false
	}
	s, ok := ToString(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func IsEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Chan, reflect.String:
		return val.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return val.IsNil()
	default:
		return reflect.DeepEqual(val.Interface(), reflect.Zero(val.Type()).Interface())
	}
}
