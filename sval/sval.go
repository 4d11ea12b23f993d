// Package sval downgrades arbitrary runtime values into bounded, JSON-like
// value trees: primitives, capped slices, and capped string-keyed maps.
//
// Values come from sources the caller does not control (page-side component
// state pulled over a CDP bridge, decoded JSON, plain Go structs), so the
// converter is total: it never panics and never recurses past a hard depth
// cap. The cap is an invariant of the output shape, not a tuning knob.
package sval

import (
	"reflect"
	"sort"
)

const (
	// MaxDepth is the hard recursion cap. Anything below this depth is
	// representable verbatim; anything past it converts to nil.
	MaxDepth = 2

	// MaxArrayItems bounds converted slices and arrays.
	MaxArrayItems = 5

	// MaxObjectEntries bounds converted maps and structs. The budget counts
	// attempted entries: an entry whose value converts to nil is skipped but
	// still consumes budget, so there is no backfill from later entries.
	MaxObjectEntries = 8
)

// Convert produces a bounded JSON-like copy of v, or nil when v cannot be
// represented at the given depth. Callers start at depth 0.
//
// Primitives pass through unchanged. Slices keep the first MaxArrayItems
// convertible elements. Maps and structs keep at most MaxObjectEntries
// attempted entries, in sorted-key order for maps and declaration order for
// structs. Functions, channels, and other opaque values convert to nil.
func Convert(v any, depth int) any {
	if depth > MaxDepth {
		return nil
	}
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		return convertList(rv, depth)
	case reflect.Map:
		return convertMap(rv, depth)
	case reflect.Struct:
		return convertStruct(rv, depth)
	default:
		// func, chan, unsafe pointer, complex: not representable.
		return nil
	}
}

func convertList(rv reflect.Value, depth int) any {
	out := make([]any, 0, min(rv.Len(), MaxArrayItems))
	for i := 0; i < rv.Len() && i < MaxArrayItems; i++ {
		c := Convert(valueInterface(rv.Index(i)), depth+1)
		if c == nil {
			// Failed conversions are dropped, not kept as holes.
			continue
		}
		out = append(out, c)
	}
	return out
}

func convertMap(rv reflect.Value, depth int) any {
	if rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)

	out := make(map[string]any, min(len(keys), MaxObjectEntries))
	for i, k := range keys {
		if i >= MaxObjectEntries {
			break
		}
		c := Convert(valueInterface(rv.MapIndex(reflect.ValueOf(k))), depth+1)
		if c == nil {
			continue
		}
		out[k] = c
	}
	return out
}

func convertStruct(rv reflect.Value, depth int) any {
	t := rv.Type()
	out := make(map[string]any)
	attempted := 0
	for i := 0; i < t.NumField() && attempted < MaxObjectEntries; i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		attempted++
		c := Convert(valueInterface(rv.Field(i)), depth+1)
		if c == nil {
			continue
		}
		out[f.Name] = c
	}
	return out
}

// valueInterface extracts an interface value without panicking on values
// obtained from unexported fields.
func valueInterface(rv reflect.Value) any {
	if !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}
