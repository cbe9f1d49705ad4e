package ports

import (
	"fmt"
	"regexp"
	"slices"
)

// DefaultKey is the primary key column used when Table.Key is empty.
const DefaultKey = "id"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table describes a model table to the record store and to model-bound
// operations.
type Table struct {
	Name     string // SQL table name
	TypeName string // model name used in messages, e.g. "Language"
	Key      string

	Columns    []string // data columns; the key is implied
	Filterable []string // columns usable as list filters
	Sortable   []string // columns usable as sort_by
	Hidden     []string // never returned to clients
	Immutable  []string // refused by update
	Unique     []string // columns under a unique constraint

	ActiveColumn string // boolean column; rows where it is false are invisible
	OwnerColumn  string // bound to the principal's owner ref
}

// KeyColumn returns the primary key column.
func (t Table) KeyColumn() string {
	if t.Key == "" {
		return DefaultKey
	}
	return t.Key
}

// HasColumn reports whether c is a declared column.
func (t Table) HasColumn(c string) bool {
	return c == t.KeyColumn() || slices.Contains(t.Columns, c)
}

// IsFilterable reports whether c may be used as a list filter.
func (t Table) IsFilterable(c string) bool { return slices.Contains(t.Filterable, c) }

// IsHidden reports whether c is withheld from responses.
func (t Table) IsHidden(c string) bool { return slices.Contains(t.Hidden, c) }

// IsImmutable reports whether c may not be updated.
func (t Table) IsImmutable(c string) bool {
	return c == t.KeyColumn() || c == t.OwnerColumn || slices.Contains(t.Immutable, c)
}

// Validate checks that every name is a safe SQL identifier and that the
// referenced columns exist.
func (t Table) Validate() error {
	if !identifier.MatchString(t.Name) {
		return fmt.Errorf("table %q: invalid name", t.Name)
	}
	all := append([]string{t.KeyColumn()}, t.Columns...)
	for _, c := range all {
		if !identifier.MatchString(c) {
			return fmt.Errorf("table %s: invalid column %q", t.Name, c)
		}
	}
	groups := map[string][]string{
		"filterable": t.Filterable,
		"sortable":   t.Sortable,
		"hidden":     t.Hidden,
		"immutable":  t.Immutable,
		"unique":     t.Unique,
	}
	for group, cols := range groups {
		for _, c := range cols {
			if !t.HasColumn(c) {
				return fmt.Errorf("table %s: %s column %q not declared", t.Name, group, c)
			}
		}
	}
	for _, c := range []string{t.ActiveColumn, t.OwnerColumn} {
		if c == "" {
			continue
		}
		if !t.HasColumn(c) {
			return fmt.Errorf("table %s: scope column %q not declared", t.Name, c)
		}
		if t.IsFilterable(c) {
			return fmt.Errorf("table %s: scope column %q cannot be filterable", t.Name, c)
		}
	}
	return nil
}

// Visible returns a copy of r without hidden columns.
func (t Table) Visible(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if !t.IsHidden(k) {
			out[k] = v
		}
	}
	return out
}
