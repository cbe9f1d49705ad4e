// Package schema provides ordered field schemas and pure validation of raw
// request input against them.
// This package has NO dependencies on I/O.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Kind is the value type a validator converts raw input into.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindOneOf  Kind = "one_of"
)

// Validator describes how one field is converted and constrained.
// Validators are values: every modifier returns a modified copy.
type Validator struct {
	Kind        Kind
	Required    bool
	Description string

	defaultValue any
	hasDefault   bool

	min, max       *float64
	minLen, maxLen *int
	pattern        *regexp.Regexp
	values         []any
	rules          []rule
}

// rule is a boolean expression over the converted value.
type rule struct {
	source  string
	program *vm.Program
	message string
}

// String accepts text values.
func String() Validator { return Validator{Kind: KindString} }

// Int accepts integers, including integral JSON numbers and numeric strings.
func Int() Validator { return Validator{Kind: KindInt} }

// Float accepts any number or numeric string.
func Float() Validator { return Validator{Kind: KindFloat} }

// Bool accepts booleans and the usual textual spellings.
func Bool() Validator { return Validator{Kind: KindBool} }

// OneOf accepts only the listed values. Input matches a value when their
// textual forms are equal; the declared value is returned.
func OneOf(values ...any) Validator {
	return Validator{Kind: KindOneOf, values: append([]any(nil), values...)}
}

// Require marks the field as mandatory and non-empty.
func (v Validator) Require() Validator {
	v.Required = true
	return v
}

// Optional clears the required flag.
func (v Validator) Optional() Validator {
	v.Required = false
	return v
}

// Default sets the value used when the field is absent.
func (v Validator) Default(value any) Validator {
	v.defaultValue = value
	v.hasDefault = true
	return v
}

// Describe sets the field description.
func (v Validator) Describe(description string) Validator {
	v.Description = description
	return v
}

// Min sets the inclusive lower bound of a numeric field.
func (v Validator) Min(n float64) Validator {
	v.min = &n
	return v
}

// Max sets the inclusive upper bound of a numeric field.
func (v Validator) Max(n float64) Validator {
	v.max = &n
	return v
}

// Between sets both numeric bounds.
func (v Validator) Between(min, max float64) Validator {
	return v.Min(min).Max(max)
}

// MinLen sets the minimum length of a string field, in characters.
func (v Validator) MinLen(n int) Validator {
	v.minLen = &n
	return v
}

// MaxLen sets the maximum length of a string field, in characters.
func (v Validator) MaxLen(n int) Validator {
	v.maxLen = &n
	return v
}

// Matching requires string values to match re.
func (v Validator) Matching(re *regexp.Regexp) Validator {
	v.pattern = re
	return v
}

// Expect adds a rule evaluated against the converted value, bound to the
// name "value". The field fails with message unless the expression yields
// true. It panics if expression does not compile, like regexp.MustCompile.
//
//	schema.Int().Expect("value % 2 == 0", "Enter an even number")
func (v Validator) Expect(expression, message string) Validator {
	program, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		panic(fmt.Sprintf("schema: expect %q: %v", expression, err))
	}
	v.rules = append(append([]rule(nil), v.rules...), rule{source: expression, program: program, message: message})
	return v
}

// Rules returns the sources of the Expect rules.
func (v Validator) Rules() []string {
	out := make([]string, len(v.rules))
	for i, r := range v.rules {
		out[i] = r.source
	}
	return out
}

// DefaultValue returns the declared default, if any.
func (v Validator) DefaultValue() (any, bool) {
	return v.defaultValue, v.hasDefault
}

// Bounds returns the numeric bounds, nil when unset.
func (v Validator) Bounds() (min, max *float64) {
	return v.min, v.max
}

// Lengths returns the string length bounds, nil when unset.
func (v Validator) Lengths() (min, max *int) {
	return v.minLen, v.maxLen
}

// Values returns the accepted values of a OneOf validator.
func (v Validator) Values() []any {
	return append([]any(nil), v.values...)
}

// Pattern returns the regular expression source, or "".
func (v Validator) Pattern() string {
	if v.pattern == nil {
		return ""
	}
	return v.pattern.String()
}

// Convert converts a present raw value and checks constraints.
// It returns the typed value or a failure message.
func (v Validator) Convert(raw any) (any, string) {
	value, msg := v.convert(raw)
	if msg != "" {
		return nil, msg
	}
	env := map[string]any{"value": value}
	for _, r := range v.rules {
		out, err := expr.Run(r.program, env)
		if ok, _ := out.(bool); err != nil || !ok {
			return nil, r.message
		}
	}
	return value, ""
}

func (v Validator) convert(raw any) (any, string) {
	switch v.Kind {
	case KindString:
		return v.convertString(raw)
	case KindInt:
		return v.convertInt(raw)
	case KindFloat:
		return v.convertFloat(raw)
	case KindBool:
		return convertBool(raw)
	case KindOneOf:
		return v.convertOneOf(raw)
	default:
		return raw, ""
	}
}

func (v Validator) convertString(raw any) (any, string) {
	s, ok := raw.(string)
	if !ok {
		return nil, "Please enter a string value"
	}
	n := utf8.RuneCountInString(s)
	if v.minLen != nil && n < *v.minLen {
		return nil, fmt.Sprintf("Enter a value at least %d characters long", *v.minLen)
	}
	if v.maxLen != nil && n > *v.maxLen {
		return nil, fmt.Sprintf("Enter a value not more than %d characters long", *v.maxLen)
	}
	if v.pattern != nil && !v.pattern.MatchString(s) {
		return nil, "The input is not valid"
	}
	return s, ""
}

func (v Validator) convertInt(raw any) (any, string) {
	const msg = "Please enter an integer value"

	var n int64
	switch x := raw.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, msg
		}
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return nil, msg
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, msg
		}
		n = i
	default:
		return nil, msg
	}

	if m := v.checkRange(float64(n)); m != "" {
		return nil, m
	}
	return int(n), ""
}

func (v Validator) convertFloat(raw any) (any, string) {
	const msg = "Please enter a number"

	var f float64
	switch x := raw.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil, msg
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, msg
		}
		f = parsed
	default:
		return nil, msg
	}

	if m := v.checkRange(f); m != "" {
		return nil, m
	}
	return f, ""
}

func (v Validator) checkRange(f float64) string {
	if v.min != nil && f < *v.min {
		return fmt.Sprintf("Please enter a number that is %s or greater", formatNumber(*v.min))
	}
	if v.max != nil && f > *v.max {
		return fmt.Sprintf("Please enter a number that is %s or smaller", formatNumber(*v.max))
	}
	return ""
}

func convertBool(raw any) (any, string) {
	switch x := raw.(type) {
	case bool:
		return x, ""
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "on", "t", "y":
			return true, ""
		case "false", "0", "no", "off", "f", "n":
			return false, ""
		}
	case float64:
		if x == 0 || x == 1 {
			return x == 1, ""
		}
	case json.Number:
		if f, err := x.Float64(); err == nil && (f == 0 || f == 1) {
			return f == 1, ""
		}
	}
	return nil, "Value should be 'true' or 'false'"
}

func (v Validator) convertOneOf(raw any) (any, string) {
	text := fmt.Sprint(raw)
	for _, candidate := range v.values {
		if fmt.Sprint(candidate) == text {
			return candidate, ""
		}
	}
	items := make([]string, len(v.values))
	for i, candidate := range v.values {
		items[i] = fmt.Sprint(candidate)
	}
	return nil, "Value must be one of: " + strings.Join(items, "; ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isEmpty reports whether raw counts as "no value supplied".
func isEmpty(raw any) bool {
	switch x := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
