package search

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/multierr"
)

// FieldType is the value type a schema field coerces to.
type FieldType string

const (
	TypeAny    FieldType = "any"
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeInt    FieldType = "int"
	TypeBool   FieldType = "bool"
	TypeArray  FieldType = "array"
	TypeObject FieldType = "object"
)

// Field declares one search key.
type Field struct {
	Name string
	Type FieldType

	// Default is used when the key is absent.
	Default any

	// Required rejects a missing key that has no Default.
	Required bool

	// Check runs after coercion. search is the full validator input.
	Check func(value any, search map[string]any) error

	// Fallback, when non-nil, replaces an invalid value instead of failing.
	Fallback any
}

// Schema is a declarative Validator over a fixed set of fields.
type Schema struct {
	Fields []Field
}

var _ Validator = (*Schema)(nil)

// Keys returns the declared field names.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Name
	}
	return keys
}

// Validate implements Validator.
func (s *Schema) Validate(input map[string]any) Result {
	out := make(map[string]any, len(s.Fields))
	var errs error
	usedFallback := false

	for _, f := range s.Fields {
		raw, present := input[f.Name]
		if !present || raw == nil {
			switch {
			case f.Default != nil:
				out[f.Name] = f.Default
			case f.Required && f.Fallback != nil:
				out[f.Name] = f.Fallback
				usedFallback = true
			case f.Required:
				errs = multierr.Append(errs, fmt.Errorf("%s: required", f.Name))
			}
			continue
		}

		v, err := coerce(f.Type, raw)
		if err == nil && f.Check != nil {
			err = f.Check(v, input)
		}
		if err != nil {
			if f.Fallback != nil {
				out[f.Name] = f.Fallback
				usedFallback = true
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		out[f.Name] = v
	}

	switch {
	case errs != nil:
		return Result{Outcome: Failed, Err: errs}
	case usedFallback:
		return Result{Value: out, Outcome: Fallback}
	}
	return Result{Value: out, Outcome: OK}
}

func coerce(t FieldType, v any) (any, error) {
	switch t {
	case "", TypeAny:
		return v, nil

	case TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(x), nil
		}

	case TypeNumber:
		if f, ok := toFloat(v); ok {
			return f, nil
		}

	case TypeInt:
		if f, ok := toFloat(v); ok && f == math.Trunc(f) {
			return int(f), nil
		}

	case TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b, nil
			}
		}

	case TypeArray:
		switch x := v.(type) {
		case []any:
			return x, nil
		case []string:
			out := make([]any, len(x))
			for i, s := range x {
				out[i] = s
			}
			return out, nil
		}

	case TypeObject:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}

	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
	return nil, fmt.Errorf("expected %s, got %T", t, v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
