// Package params implements the path, query, and header parameter
// encoders described in spec.md §4.2.
package params

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ArrayEncoding selects how repeated query values are rendered.
type ArrayEncoding int

const (
	// ArrayBracketed renders "a[]=1&a[]=2".
	ArrayBracketed ArrayEncoding = iota
	// ArrayUnbracketed renders "a=1&a=2".
	ArrayUnbracketed
)

// BoolEncoding selects how boolean query values are rendered.
type BoolEncoding int

const (
	// BoolLiteral renders "true"/"false".
	BoolLiteral BoolEncoding = iota
	// BoolNumeric renders "1"/"0".
	BoolNumeric
)

// DateEncoding selects how time.Time query values are rendered.
type DateEncoding int

const (
	// DateISO8601 renders RFC 3339 with milliseconds, e.g. "2024-01-02T03:04:05.006Z".
	DateISO8601 DateEncoding = iota
	// DateSecondsSince1970 renders a float seconds-since-epoch with millisecond precision.
	DateSecondsSince1970
	// DateMillisecondsSince1970 renders an integer milliseconds-since-epoch.
	DateMillisecondsSince1970
)

// FormOptions configures the www-form-urlencoded flattening algorithm used
// by both the query-parameter encoder and the application/x-www-form-urlencoded
// body codec.
type FormOptions struct {
	ArrayEncoding ArrayEncoding
	BoolEncoding  BoolEncoding
	DateEncoding  DateEncoding
}

// DefaultFormOptions returns the framework defaults: bracketed arrays,
// literal booleans, ISO-8601 dates.
func DefaultFormOptions() FormOptions {
	return FormOptions{
		ArrayEncoding: ArrayBracketed,
		BoolEncoding:  BoolLiteral,
		DateEncoding:  DateISO8601,
	}
}

// keyValue is one flattened (already percent-encode-ready) pair.
type keyValue struct {
	key     string
	value   string
	isFlag  bool // true for a bare-key "null" flag with no "="
}

// EncodeForm flattens v (which must be a map-like value, per spec.md §4.2
// "Top-level value must be a mapping") into a www-form-urlencoded string.
func EncodeForm(v any, opts FormOptions) (string, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", fmt.Errorf("params: nil top-level value")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map && rv.Kind() != reflect.Struct {
		return "", fmt.Errorf("params: top-level value must be a mapping, got %s", rv.Kind())
	}

	var pairs []keyValue
	m, err := toOrderedMap(rv)
	if err != nil {
		return "", err
	}
	for _, kv := range m {
		pairs = append(pairs, flatten(kv.key, kv.value, opts)...)
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(p.key))
		if !p.isFlag {
			b.WriteByte('=')
			b.WriteString(escape(p.value))
		}
	}
	return b.String(), nil
}

// EncodeQuery is an alias for EncodeForm, named for its use at the
// query-parameter call site (spec.md §4.2 "Query (www-form-urlencoded)").
func EncodeQuery(v any, opts FormOptions) (string, error) {
	return EncodeForm(v, opts)
}

type orderedEntry struct {
	key   string
	value any
}

// toOrderedMap extracts map/struct entries preserving map iteration order is
// not guaranteed by Go, so we sort map keys for deterministic wire output;
// struct fields keep declaration order.
func toOrderedMap(rv reflect.Value) ([]orderedEntry, error) {
	var entries []orderedEntry
	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		strKeys := make([]string, len(keys))
		for i, k := range keys {
			strKeys[i] = fmt.Sprint(k.Interface())
		}
		sort.Strings(strKeys)
		byKey := make(map[string]any, len(keys))
		for _, k := range keys {
			byKey[fmt.Sprint(k.Interface())] = rv.MapIndex(k).Interface()
		}
		for _, k := range strKeys {
			entries = append(entries, orderedEntry{key: k, value: byKey[k]})
		}
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("form"); ok && tag != "" {
				name = strings.Split(tag, ",")[0]
			}
			entries = append(entries, orderedEntry{key: name, value: rv.Field(i).Interface()})
		}
	}
	return entries, nil
}

// flatten renders a single (possibly composite) value under key according
// to opts, per spec.md §4.2: dictionaries -> "key[subkey]=v", arrays use the
// selected array shape, null -> bare key.
func flatten(key string, value any, opts FormOptions) []keyValue {
	if value == nil {
		return []keyValue{{key: key, isFlag: true}}
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return []keyValue{{key: key, isFlag: true}}
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		var out []keyValue
		entries, _ := toOrderedMap(rv)
		for _, e := range entries {
			out = append(out, flatten(fmt.Sprintf("%s[%s]", key, e.key), e.value, opts)...)
		}
		return out
	case reflect.Struct:
		if t, ok := value.(time.Time); ok {
			return []keyValue{{key: key, value: encodeDate(t, opts.DateEncoding)}}
		}
		var out []keyValue
		entries, _ := toOrderedMap(rv)
		for _, e := range entries {
			out = append(out, flatten(fmt.Sprintf("%s[%s]", key, e.key), e.value, opts)...)
		}
		return out
	case reflect.Slice, reflect.Array:
		var out []keyValue
		n := rv.Len()
		for i := 0; i < n; i++ {
			elemKey := key
			if opts.ArrayEncoding == ArrayBracketed {
				elemKey = key + "[]"
			}
			out = append(out, flatten(elemKey, rv.Index(i).Interface(), opts)...)
		}
		return out
	case reflect.Bool:
		return []keyValue{{key: key, value: encodeBool(rv.Bool(), opts.BoolEncoding)}}
	default:
		return []keyValue{{key: key, value: scalarString(value)}}
	}
}

func encodeBool(b bool, enc BoolEncoding) string {
	if enc == BoolNumeric {
		if b {
			return "1"
		}
		return "0"
	}
	if b {
		return "true"
	}
	return "false"
}

func encodeDate(t time.Time, enc DateEncoding) string {
	switch enc {
	case DateSecondsSince1970:
		secs := float64(t.UnixMilli()) / 1000.0
		return strconv.FormatFloat(secs, 'f', 3, 64)
	case DateMillisecondsSince1970:
		return strconv.FormatInt(t.UnixMilli(), 10)
	default: // DateISO8601
		ms := t.UnixMilli()
		truncated := time.UnixMilli(ms).UTC()
		return truncated.Format("2006-01-02T15:04:05.000Z")
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// unreservedExtra are the characters spec.md §4.2 requires to pass through
// unescaped in addition to RFC 3986 unreserved characters.
const unreservedExtra = "!'()~"

// escape percent-encodes s for a www-form-urlencoded key or value, passing
// through unreserved characters plus unreservedExtra.
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(unreservedExtra, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.':
		return true
	}
	return false
}
