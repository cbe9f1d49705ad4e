// Package status provides the API status taxonomy: symbolic names bound to an
// HTTP status, an internal status code and a message template.
// This package has NO dependencies on I/O or external packages.
package status

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Name is the symbolic name of a status (e.g. "API_OK").
type Name string

// Status is a resolved catalog entry (immutable value type).
type Status struct {
	Name       Name
	HTTPStatus int
	Code       int
	Message    string
}

// IsFailure reports whether the status must be raised as an error rather
// than returned as a value. Every code from 2000 upwards is a failure.
func (s Status) IsFailure() bool {
	return s.Code >= 2000
}

// String renders the status as "<http - code message>".
func (s Status) String() string {
	return fmt.Sprintf("<%d - %d %s>", s.HTTPStatus, s.Code, s.Message)
}

// Args holds message template substitutions.
type Args map[string]any

// Definition is one row of a catalog table.
type Definition struct {
	HTTPStatus int
	Code       int
	Template   string
}

// UnknownStatusError is returned when a name is absent from the catalog.
type UnknownStatusError struct {
	Name Name
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("status %s not found", e.Name)
}

// MissingParameterError is returned when a message template references a
// placeholder for which no argument was supplied.
type MissingParameterError struct {
	Name     Name
	Template string
	Key      string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("message %q of %s missing argument %q", e.Template, e.Name, e.Key)
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Catalog is an immutable lookup table of statuses.
type Catalog struct {
	entries map[Name]Definition
}

// NewCatalog builds a catalog from a table. The table is copied.
func NewCatalog(table map[Name]Definition) *Catalog {
	entries := make(map[Name]Definition, len(table))
	for name, def := range table {
		entries[name] = def
	}
	return &Catalog{entries: entries}
}

// Get resolves a status by name, substituting {key} placeholders from args.
func (c *Catalog) Get(name Name, args Args) (Status, error) {
	def, ok := c.entries[name]
	if !ok {
		return Status{}, &UnknownStatusError{Name: name}
	}

	message, err := render(def.Template, args)
	if err != nil {
		var missing *MissingParameterError
		if errors.As(err, &missing) {
			missing.Name = name
		}
		return Status{}, err
	}

	return Status{
		Name:       name,
		HTTPStatus: def.HTTPStatus,
		Code:       def.Code,
		Message:    message,
	}, nil
}

// AsError resolves a status and wraps it as a raisable failure.
func (c *Catalog) AsError(name Name, args Args) (*Error, error) {
	s, err := c.Get(name, args)
	if err != nil {
		return nil, err
	}
	return &Error{Status: s}, nil
}

// Fail is AsError for names known at compile time. An unknown name or a
// missing argument is a programming error and panics.
func (c *Catalog) Fail(name Name, args Args) *Error {
	e, err := c.AsError(name, args)
	if err != nil {
		panic(err)
	}
	return e
}

// Must is Get for names known at compile time; it panics on error.
func (c *Catalog) Must(name Name) Status {
	s, err := c.Get(name, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns all catalog names in sorted order.
func (c *Catalog) Names() []Name {
	names := make([]Name, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Lookup returns the raw definition for a name.
func (c *Catalog) Lookup(name Name) (Definition, bool) {
	def, ok := c.entries[name]
	return def, ok
}

func render(template string, args Args) (string, error) {
	var missing string
	out := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := args[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return m
		}
		return fmt.Sprint(v)
	})
	if missing != "" {
		return "", &MissingParameterError{Template: template, Key: missing}
	}
	return out, nil
}

// Synthesize builds a status for an HTTP code that has no catalog entry.
// The internal code is the HTTP code times ten.
func Synthesize(httpStatus int, message string) Status {
	return Status{
		Name:       Name(fmt.Sprintf("HTTP_%d", httpStatus)),
		HTTPStatus: httpStatus,
		Code:       httpStatus * 10,
		Message:    strings.TrimSpace(message),
	}
}
