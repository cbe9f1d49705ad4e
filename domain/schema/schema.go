package schema

import (
	"sort"
	"strings"

	"github.com/artpar/hoops/domain/status"
)

// Field binds a name to a validator.
type Field struct {
	Name      string
	Validator Validator
}

// F is shorthand for a Field literal.
func F(name string, v Validator) Field {
	return Field{Name: name, Validator: v}
}

// Schema is an ordered set of uniquely named fields.
// Schemas are values; every method returning a Schema returns a new one.
type Schema struct {
	fields []Field
	strict bool
}

// New builds a schema. A later field replaces an earlier one with the
// same name, keeping the earlier position.
func New(fields ...Field) Schema {
	var s Schema
	for _, f := range fields {
		s = s.With(f.Name, f.Validator)
	}
	return s
}

// With returns a copy of s with name set to v.
func (s Schema) With(name string, v Validator) Schema {
	out := s.clone()
	for i := range out.fields {
		if out.fields[i].Name == name {
			out.fields[i].Validator = v
			return out
		}
	}
	out.fields = append(out.fields, Field{Name: name, Validator: v})
	return out
}

// Without returns a copy of s without the named fields.
func (s Schema) Without(names ...string) Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := Schema{strict: s.strict}
	for _, f := range s.fields {
		if !drop[f.Name] {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Strict returns a copy of s that rejects fields it does not declare.
func (s Schema) Strict() Schema {
	out := s.clone()
	out.strict = true
	return out
}

// IsStrict reports whether undeclared fields are rejected.
func (s Schema) IsStrict() bool { return s.strict }

// Fields returns the fields in declaration order.
func (s Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Get returns the validator of a field.
func (s Schema) Get(name string) (Validator, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f.Validator, true
		}
	}
	return Validator{}, false
}

// Has reports whether the schema declares name.
func (s Schema) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.fields) }

// IsEmpty reports whether the schema has no fields.
func (s Schema) IsEmpty() bool { return len(s.fields) == 0 }

func (s Schema) clone() Schema {
	return Schema{fields: append([]Field(nil), s.fields...), strict: s.strict}
}

// Compose merges a resource-level schema into an operation-level one.
// Operation fields come first and win on name collision; resource fields
// are appended only when absent. The result is strict if either input is.
// This is a PURE function.
func Compose(resource, operation Schema) Schema {
	out := operation.clone()
	out.strict = operation.strict || resource.strict
	for _, f := range resource.fields {
		if !out.Has(f.Name) {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Validate converts raw input against the schema. All failing fields are
// reported together; the result map is only meaningful when errs is empty.
// A missing optional field without a default is left out of the result.
// This is a PURE function.
func (s Schema) Validate(raw map[string]any) (map[string]any, status.FieldErrors) {
	out := make(map[string]any, len(s.fields))
	errs := status.FieldErrors{}

	for _, f := range s.fields {
		v := f.Validator
		value, present := raw[f.Name]

		if !present || isEmpty(value) {
			if def, ok := v.DefaultValue(); ok {
				out[f.Name] = def
				continue
			}
			if v.Required {
				if present {
					errs[f.Name] = "Please enter a value"
				} else {
					errs[f.Name] = "Missing value"
				}
				continue
			}
			if present && v.Kind == KindString {
				if text, ok := value.(string); ok {
					out[f.Name] = text
				}
			}
			continue
		}

		converted, msg := v.Convert(value)
		if msg != "" {
			errs[f.Name] = msg
			continue
		}
		out[f.Name] = converted
	}

	if s.strict {
		for _, name := range sortedKeys(raw) {
			if !s.Has(name) {
				errs[name] = "The input field '" + name + "' was not expected."
			}
		}
	}

	if len(errs) == 0 {
		return out, nil
	}
	return out, errs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Describe renders a one-line summary of the schema, used in logs.
func (s Schema) Describe() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		part := f.Name + ":" + string(f.Validator.Kind)
		if f.Validator.Required {
			part += "!"
		}
		parts[i] = part
	}
	return "{" + strings.Join(parts, " ") + "}"
}
