package app

import (
	"context"
	"errors"

	"github.com/artpar/hoops/domain/status"
	"github.com/artpar/hoops/ports"
)

// Principal is the authenticated caller.
type Principal struct {
	CredentialID string
	ConsumerKey  string
	OwnerRef     string
}

// Call is one invocation of an operation. It is owned by the request that
// created it.
type Call struct {
	Resource  *Resource
	Op        OpKind
	ID        string
	URLParams map[string]any
	Params    map[string]any
	Principal *Principal

	// Target is the row loaded by a setup hook, if any.
	Target ports.Record
}

// CombinedParams returns a deep copy of Params overlaid with URLParams.
// URL values win on collision.
func (c *Call) CombinedParams() map[string]any {
	out := make(map[string]any, len(c.Params)+len(c.URLParams))
	for k, v := range c.Params {
		out[k] = deepCopy(v)
	}
	for k, v := range c.URLParams {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// Model returns the model bound to the resource, or nil.
func (c *Call) Model() *Model {
	return c.Resource.model
}

// scope returns the filters every query of this call is confined to.
func (c *Call) scope() map[string]any {
	m := c.Model()
	filters := map[string]any{}
	if m == nil {
		return filters
	}
	if m.Table.ActiveColumn != "" {
		filters[m.Table.ActiveColumn] = true
	}
	if m.Table.OwnerColumn != "" && c.Principal != nil {
		filters[m.Table.OwnerColumn] = c.Principal.OwnerRef
	}
	return filters
}

// BaseQuery returns the filters for a model query: combined params naming
// filterable columns, then filters, then the resource scope. The scope
// always wins.
func (c *Call) BaseQuery(filters map[string]any) map[string]any {
	out := map[string]any{}
	if m := c.Model(); m != nil {
		for k, v := range c.CombinedParams() {
			if m.Table.IsFilterable(k) {
				out[k] = v
			}
		}
	}
	for k, v := range filters {
		out[k] = v
	}
	for k, v := range c.scope() {
		out[k] = v
	}
	return out
}

// LoadOne loads the row with the given id inside the resource scope.
func (c *Call) LoadOne(ctx context.Context, id string) (ports.Record, error) {
	m := c.Model()
	if m == nil {
		return nil, status.Fail(status.CodeNotImplemented, nil)
	}

	filters := c.scope()
	filters[m.Table.KeyColumn()] = id

	rows, err := m.Store.Find(ctx, m.Table, ports.Query{Filters: filters, Limit: 1})
	if err != nil {
		return nil, storeFailure(err)
	}
	if len(rows) == 0 {
		return nil, notFound(m)
	}
	return rows[0], nil
}

func notFound(m *Model) error {
	return status.Fail(status.DatabaseResourceNotFound, status.Args{"resource": m.Table.TypeName})
}

func storeFailure(err error) error {
	if errors.Is(err, ports.ErrDuplicate) {
		return status.Fail(status.DuplicateValue, nil).Wrap(err)
	}
	return status.Fail(status.DatabaseOperationFailed, nil).Wrap(err)
}
