package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Fields is an insertion-ordered map of captured wizard values.
// Values are strings, int64, []int64 or nil (an explicitly absent value).
type Fields struct {
	keys []string
	vals map[string]any
}

// NewFields returns an empty field map.
func NewFields() *Fields {
	return &Fields{vals: make(map[string]any)}
}

// Set stores val under key. Re-setting a key keeps its original position.
func (f *Fields) Set(key string, val any) {
	if f.vals == nil {
		f.vals = make(map[string]any)
	}
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = normalize(val)
}

// Get returns the raw value for key.
func (f *Fields) Get(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.vals[key]
	return v, ok
}

// Has reports whether key was captured, even as an absent value.
func (f *Fields) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Keys returns field names in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// Len returns the number of captured fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Clone returns an independent copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	if f == nil {
		return out
	}
	for _, k := range f.keys {
		v := f.vals[k]
		if ids, ok := v.([]int64); ok {
			v = append([]int64(nil), ids...)
		}
		out.Set(k, v)
	}
	return out
}

// String returns a string field.
func (f *Fields) String(key string) (string, bool) {
	v, ok := f.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// OptionalString returns nil when key is missing or explicitly absent.
func (f *Fields) OptionalString(key string) *string {
	s, ok := f.String(key)
	if !ok {
		return nil
	}
	return &s
}

// Int64 returns a numeric field.
func (f *Fields) Int64(key string) (int64, bool) {
	v, ok := f.Get(key)
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// Int returns a numeric field that fits into int.
func (f *Fields) Int(key string) (int, bool) {
	n, ok := f.Int64(key)
	if !ok || n > math.MaxInt || n < math.MinInt {
		return 0, false
	}
	return int(n), true
}

// Int64s returns a list of identifiers.
func (f *Fields) Int64s(key string) ([]int64, bool) {
	v, ok := f.Get(key)
	if !ok {
		return nil, false
	}
	switch x := v.(type) {
	case []int64:
		return append([]int64(nil), x...), true
	case []any:
		out := make([]int64, 0, len(x))
		for _, item := range x {
			n, ok := toInt64(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	return nil, false
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case []int:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out
	case *string:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

type fieldPair struct {
	Key   string `json:"k"`
	Value any    `json:"v"`
}

// MarshalJSON encodes fields as an ordered list of pairs.
func (f *Fields) MarshalJSON() ([]byte, error) {
	pairs := make([]fieldPair, 0, f.Len())
	if f != nil {
		for _, k := range f.keys {
			pairs = append(pairs, fieldPair{Key: k, Value: f.vals[k]})
		}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON restores fields and their order. Numbers decode as json.Number.
func (f *Fields) UnmarshalJSON(data []byte) error {
	var pairs []fieldPair
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&pairs); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	*f = Fields{vals: make(map[string]any, len(pairs))}
	for _, p := range pairs {
		f.Set(p.Key, p.Value)
	}
	return nil
}
