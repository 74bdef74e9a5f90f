package filestate

import "fmt"

// Value is a resolved option value as decoded from the
// configuration file. It wraps the raw YAML node and
// exposes typed predicates and accessors.
type Value struct {
	raw any
}

// NewValue wraps raw. Nested mappings with non-string
// keys are normalised to map[string]any.
func NewValue(raw any) Value {
	return Value{raw: normalize(raw)}
}

// Raw returns the underlying decoded value.
func (v Value) Raw() any {
	return v.raw
}

// IsNil reports whether the value is absent or null.
func (v Value) IsNil() bool {
	return v.raw == nil
}

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool {
	_, ok := v.raw.(bool)

	return ok
}

// Bool returns the boolean value, false for any other
// type.
func (v Value) Bool() bool {
	b, _ := v.raw.(bool) //nolint:errcheck // zero value wanted

	return b
}

// IsString reports whether the value is a string.
func (v Value) IsString() bool {
	_, ok := v.raw.(string)

	return ok
}

// String returns the string value, or the empty string.
func (v Value) String() string {
	s, _ := v.raw.(string) //nolint:errcheck // zero value wanted

	return s
}

// IsDict reports whether the value is a mapping.
func (v Value) IsDict() bool {
	_, ok := v.raw.(map[string]any)

	return ok
}

// Dict returns the mapping, or nil.
func (v Value) Dict() map[string]any {
	m, _ := v.raw.(map[string]any) //nolint:errcheck // zero value wanted

	return m
}

// IsList reports whether the value is a sequence.
func (v Value) IsList() bool {
	_, ok := v.raw.([]any)

	return ok
}

// List returns the sequence, or nil.
func (v Value) List() []any {
	l, _ := v.raw.([]any) //nolint:errcheck // zero value wanted

	return l
}

// Get returns the value stored under key when v is a
// mapping. The second result is false when v is not a
// mapping or the key is missing.
func (v Value) Get(key string) (Value, bool) {
	m := v.Dict()
	if m == nil {
		return Value{}, false
	}

	raw, ok := m[key]

	return Value{raw: raw}, ok
}

func normalize(raw any) any {
	switch tv := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for key, val := range tv {
			out[key] = normalize(val)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(tv))
		for key, val := range tv {
			out[fmt.Sprint(key)] = normalize(val)
		}

		return out
	case []any:
		out := make([]any, len(tv))
		for i, val := range tv {
			out[i] = normalize(val)
		}

		return out
	default:
		return raw
	}
}
