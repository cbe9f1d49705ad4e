// Package envelope provides the canonical response document wrapping every
// API result, successful or not.
// This package has NO dependencies on I/O.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/artpar/hoops/domain/status"
)

// Top-level document keys.
const (
	KeyAPIVersion    = "api_version"
	KeyResponseData  = "response_data"
	KeyStatusCode    = "status_code"
	KeyStatusMessage = "status_message"
)

// Envelope is the response document. Extra entries are serialized at the
// top level next to the fixed keys; they never override a fixed key.
type Envelope struct {
	APIVersion    string
	ResponseData  any
	StatusCode    int
	StatusMessage string
	Extra         map[string]any

	// HTTPStatus is the transport status; it is not part of the document.
	HTTPStatus int
}

// Build wraps data with the given status. extra is copied.
// This is a PURE function.
func Build(apiVersion string, data any, s status.Status, extra map[string]any) Envelope {
	var copied map[string]any
	if len(extra) > 0 {
		copied = make(map[string]any, len(extra))
		for k, v := range extra {
			copied[k] = v
		}
	}
	return Envelope{
		APIVersion:    apiVersion,
		ResponseData:  data,
		StatusCode:    s.Code,
		StatusMessage: s.Message,
		Extra:         copied,
		HTTPStatus:    s.HTTPStatus,
	}
}

// FromError wraps a failure. response_data is always null.
func FromError(apiVersion string, e *status.Error) Envelope {
	return Build(apiVersion, nil, e.Status, e.Extra)
}

// Map returns the envelope as a generic document with extra entries
// flattened into it.
func (e Envelope) Map() map[string]any {
	m := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		m[k] = v
	}
	m[KeyAPIVersion] = e.APIVersion
	m[KeyResponseData] = e.ResponseData
	m[KeyStatusCode] = e.StatusCode
	m[KeyStatusMessage] = e.StatusMessage
	return m
}

// MarshalJSON encodes the flattened document with sorted keys.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// UnmarshalJSON decodes a flattened document; unknown keys land in Extra.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Envelope{}
	if v, ok := raw[KeyAPIVersion]; ok {
		if err := json.Unmarshal(v, &out.APIVersion); err != nil {
			return fmt.Errorf("%s: %w", KeyAPIVersion, err)
		}
	}
	if v, ok := raw[KeyStatusCode]; ok {
		if err := json.Unmarshal(v, &out.StatusCode); err != nil {
			return fmt.Errorf("%s: %w", KeyStatusCode, err)
		}
	}
	if v, ok := raw[KeyStatusMessage]; ok {
		if err := json.Unmarshal(v, &out.StatusMessage); err != nil {
			return fmt.Errorf("%s: %w", KeyStatusMessage, err)
		}
	}
	if v, ok := raw[KeyResponseData]; ok {
		data, err := decodeGeneric(v)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyResponseData, err)
		}
		out.ResponseData = data
	}

	for k, v := range raw {
		switch k {
		case KeyAPIVersion, KeyStatusCode, KeyStatusMessage, KeyResponseData:
			continue
		}
		value, err := decodeGeneric(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra[k] = value
	}

	*e = out
	return nil
}

// Generic returns the document as plain maps, slices, strings, bools,
// int64 and float64 values, suitable for any encoder.
func (e Envelope) Generic() (map[string]any, error) {
	b, err := e.MarshalJSON()
	if err != nil {
		return nil, err
	}
	v, err := decodeGeneric(b)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}

func decodeGeneric(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, val := range x {
			x[k] = normalize(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalize(val)
		}
		return x
	default:
		return v
	}
}
