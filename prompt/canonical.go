// Package prompt serializes context bundles and sessions into the
// deterministic, checksummed, hierarchically delimited text protocol
// consumed by AI coding assistants.
//
// Rendering is a pure function of its input: the same context always
// yields byte-identical output, and the checksum embedded in the opening
// tag is repeated in the closing tag for reader-side integrity checks.
package prompt

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// canonical produces a JSON-like stringification with a total order:
// struct fields in declaration order under their json names, map keys
// sorted, absent values dropped. It is the checksum input and the value
// syntax used inside sections.
func canonical(v any) string {
	var b strings.Builder
	writeCanonical(&b, reflect.ValueOf(v))
	return b.String()
}

func writeCanonical(b *strings.Builder, rv reflect.Value) {
	if !rv.IsValid() {
		b.WriteString("null")
		return
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		rv = rv.Elem()
	}

	if t, ok := rv.Interface().(time.Time); ok {
		b.WriteString(strconv.Quote(t.UTC().Format(time.RFC3339Nano)))
		return
	}

	switch rv.Kind() {
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.String:
		b.WriteString(strconv.Quote(rv.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		b.WriteString(formatFloat(rv.Float()))
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, rv.Index(i))
		}
		b.WriteByte(']')
	case reflect.Map:
		writeCanonicalMap(b, rv)
	case reflect.Struct:
		writeCanonicalStruct(b, rv)
	default:
		b.WriteString("null")
	}
}

func writeCanonicalMap(b *strings.Builder, rv reflect.Value) {
	if rv.Type().Key().Kind() != reflect.String {
		b.WriteString("null")
		return
	}
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)

	b.WriteByte('{')
	first := true
	for _, k := range keys {
		val := rv.MapIndex(reflect.ValueOf(k))
		if absent(val) {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		writeCanonical(b, val)
	}
	b.WriteByte('}')
}

func writeCanonicalStruct(b *strings.Builder, rv reflect.Value) {
	t := rv.Type()
	b.WriteByte('{')
	first := true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "-" {
			continue
		}
		val := rv.Field(i)
		if absent(val) {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Quote(name))
		b.WriteByte(':')
		writeCanonical(b, val)
	}
	b.WriteByte('}')
}

// absent reports whether a value is dropped from canonical output: nil
// pointers/interfaces, nil slices and maps, and empty strings. Zero
// numbers and false booleans are real values and stay.
func absent(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.IsNil()
	case reflect.String:
		return rv.Len() == 0
	}
	return false
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// checksum is the document integrity hash: a simple 31-multiplier rolling
// hash over the canonical stringification. Non-cryptographic on purpose;
// the reader only needs tamper/truncation detection.
func checksum(s string) string {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return fmt.Sprintf("%08x", h)
}

// shortHash derives the compact selection id from identity-bearing fields.
func shortHash(s string) string {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return fmt.Sprintf("%06x", h&0xffffff)
}
