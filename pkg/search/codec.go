package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Codec converts between a query string and a search object.
type Codec interface {
	Parse(query string) map[string]any
	Stringify(search map[string]any) string
}

// JSONCodec is the default codec. Each value is JSON encoded when that is
// needed to keep its type, so {"page": 2, "q": "2"} becomes page=2&q=%222%22.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

// DefaultCodec is used when no codec is configured.
var DefaultCodec Codec = JSONCodec{}

// Parse is DefaultCodec.Parse.
func Parse(query string) map[string]any {
	return DefaultCodec.Parse(query)
}

// Stringify is DefaultCodec.Stringify.
func Stringify(search map[string]any) string {
	return DefaultCodec.Stringify(search)
}

// Parse decodes a query string. A leading "?" is ignored. Repeated keys
// become arrays. Values that are valid JSON are decoded, everything else
// stays a string.
func (JSONCodec) Parse(query string) map[string]any {
	query = strings.TrimPrefix(query, "?")
	out := make(map[string]any)
	if query == "" {
		return out
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			value = rawValue
		}
		parsed := decodeValue(value)

		switch existing := out[key].(type) {
		case nil:
			if _, seen := out[key]; seen {
				out[key] = repeated{nil, parsed}
			} else {
				out[key] = parsed
			}
		case repeated:
			out[key] = append(existing, parsed)
		default:
			out[key] = repeated{existing, parsed}
		}
	}

	for k, v := range out {
		if r, ok := v.(repeated); ok {
			out[k] = []any(r)
		}
	}
	return out
}

// repeated marks arrays built from repeated keys while parsing, so a JSON
// array value is never appended to.
type repeated []any

func decodeValue(s string) any {
	if s == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// Stringify encodes a search object with sorted keys. Nil values are omitted.
func (JSONCodec) Stringify(search map[string]any) string {
	if len(search) == 0 {
		return ""
	}

	keys := make([]string, 0, len(search))
	for k, v := range search {
		if isNil(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(encodeValue(search[k])))
	}
	return b.String()
}

func encodeValue(v any) string {
	if s, ok := v.(string); ok {
		if s == "" {
			return ""
		}
		var probe any
		if json.Unmarshal([]byte(s), &probe) == nil {
			quoted, _ := json.Marshal(s)
			return string(quoted)
		}
		return s
	}

	data, err := marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// marshal encodes without HTML escaping so values stay readable in URLs.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Normalize round-trips v through JSON so values built from Go types
// (int, []string, structs) compare equal to parsed values. Top-level nil
// values are dropped, matching Stringify.
func Normalize(v map[string]any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	data, err := marshal(v)
	if err != nil {
		return v
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	if out == nil {
		out = map[string]any{}
	}
	for k, val := range out {
		if val == nil {
			delete(out, k)
		}
	}
	return out
}

// Equal reports whether two search objects are equivalent after normalization.
func Equal(a, b map[string]any) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}
