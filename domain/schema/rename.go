package schema

import (
	"github.com/artpar/hoops/domain/status"
)

// Converter transforms a value while it is moved to its internal name.
type Converter func(value any) (any, error)

// Rename maps an external input name to an internal one.
type Rename struct {
	From    string
	To      string
	Convert Converter
}

// Renames is an ordered list of renames.
type Renames []Rename

// Apply returns a copy of params with every present From key moved to To.
// Converter failures are reported under the external name.
func (r Renames) Apply(params map[string]any) (map[string]any, status.FieldErrors) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	errs := status.FieldErrors{}
	for _, rn := range r {
		value, ok := out[rn.From]
		if !ok {
			continue
		}
		delete(out, rn.From)
		if rn.Convert != nil {
			converted, err := rn.Convert(value)
			if err != nil {
				errs[rn.From] = err.Error()
				continue
			}
			value = converted
		}
		out[rn.To] = value
	}

	if len(errs) == 0 {
		return out, nil
	}
	return out, errs
}
