package guard

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/chatwing/chatwing/internal/llm/tokens"
)

const (
	// CircularMarker replaces any value that refers back to one of its parents
	CircularMarker = "[circular]"

	// UnserializableMarker replaces content that cannot be converted to text at all
	UnserializableMarker = "[unserializable]"
)

// Stringify converts an arbitrary tool result to a string. Strings pass
// through unchanged. Everything else is serialized to JSON, with cyclic
// references replaced by CircularMarker instead of failing. Total
// serialization failure yields UnserializableMarker; Stringify never returns
// an error.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}

	tree := decycle(reflect.ValueOf(v), map[uintptr]bool{})
	data, err := json.Marshal(tree)
	if err != nil {
		return UnserializableMarker
	}
	return string(data)
}

// EstimateTokens measures an arbitrary value by serializing it the same way a
// governed result would be serialized and estimating the text.
func EstimateTokens(v any) int {
	return tokens.Estimate(Stringify(v))
}

// decycle walks a value and rebuilds it as plain maps/slices/scalars,
// substituting CircularMarker wherever a pointer, map, or slice appears on
// its own ancestor path.
func decycle(v reflect.Value, seen map[uintptr]bool) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return decycle(v.Elem(), seen)

	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularMarker
		}
		seen[addr] = true
		out := decycle(v.Elem(), seen)
		delete(seen, addr)
		return out

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularMarker
		}
		seen[addr] = true
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = decycle(iter.Value(), seen)
		}
		delete(seen, addr)
		return out

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularMarker
		}
		seen[addr] = true
		out := decycleList(v, seen)
		delete(seen, addr)
		return out

	case reflect.Array:
		return decycleList(v, seen)

	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				if tag == "-" {
					continue
				}
				if comma := strings.IndexByte(tag, ','); comma >= 0 {
					tag = tag[:comma]
				}
				if tag != "" {
					name = tag
				}
			}
			out[name] = decycle(v.Field(i), seen)
		}
		return out

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return UnserializableMarker

	default:
		return v.Interface()
	}
}

func decycleList(v reflect.Value, seen map[uintptr]bool) []any {
	out := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = decycle(v.Index(i), seen)
	}
	return out
}
