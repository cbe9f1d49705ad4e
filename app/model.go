package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/hoops/domain/listing"
	"github.com/artpar/hoops/domain/status"
	"github.com/artpar/hoops/ports"
)

// Model binds a resource to a table of the record store.
type Model struct {
	Table ports.Table
	Store ports.RecordStore
	IDs   ports.IDGenerator
}

func (m *Model) validate() error {
	if m.Store == nil {
		return errors.New("model has no store")
	}
	if m.IDs == nil {
		return errors.New("model has no id generator")
	}
	if m.Table.TypeName == "" {
		return errors.New("model has no type name")
	}
	return m.Table.Validate()
}

func modelOnly(op *Operation) { op.model = true }

// ModelList lists rows in the resource scope, filtered by filterable
// params and windowed by the universal list parameters.
func ModelList(opts ...Option) Operation {
	return Implemented(listRows, append([]Option{modelOnly}, opts...)...)
}

// ModelRetrieve returns the row addressed by the object identifier.
func ModelRetrieve(opts ...Option) Operation {
	return Implemented(retrieveRow, append([]Option{modelOnly}, opts...)...)
}

// ModelCreate inserts a row from the validated params. The key and the
// owner column are assigned by the server.
func ModelCreate(opts ...Option) Operation {
	return Implemented(createRow, append([]Option{modelOnly}, opts...)...)
}

// ModelUpdate preloads the addressed row, refuses changes to immutable
// columns and applies the validated params.
func ModelUpdate(opts ...Option) Operation {
	return Implemented(updateRow, append([]Option{modelOnly, WithSetup(preloadForUpdate)}, opts...)...)
}

// ModelRemove deletes the addressed row.
func ModelRemove(opts ...Option) Operation {
	return Implemented(removeRow, append([]Option{modelOnly, WithSetup(preload)}, opts...)...)
}

func listRows(ctx context.Context, c *Call) (Result, error) {
	m := c.Model()
	w, sortBy, dir := listing.FromParams(c.Params)
	filters := c.BaseQuery(nil)

	total, err := m.Store.Count(ctx, m.Table, ports.Query{Filters: filters})
	if err != nil {
		return Result{}, storeFailure(err)
	}
	if err := w.Check(total); err != nil {
		return Result{}, err
	}

	rows, err := m.Store.Find(ctx, m.Table, ports.Query{
		Filters: filters,
		SortBy:  sortBy,
		Desc:    dir == listing.Desc,
		Offset:  w.Offset(),
		Limit:   w.Limit,
	})
	if err != nil {
		return Result{}, storeFailure(err)
	}

	data := make([]any, len(rows))
	for i, r := range rows {
		data[i] = m.Table.Visible(r)
	}

	res := Result{
		Data:  data,
		Extra: map[string]any{status.ExtraPagination: listing.Paginate(w, sortBy, dir, len(rows), total)},
	}
	if total == 0 {
		res.Status = status.NoRecordsFound
	}
	return res, nil
}

func retrieveRow(ctx context.Context, c *Call) (Result, error) {
	row, err := c.LoadOne(ctx, c.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: c.Model().Table.Visible(row)}, nil
}

func createRow(ctx context.Context, c *Call) (Result, error) {
	m := c.Model()
	t := m.Table

	row := ports.Record{}
	for k, v := range c.Params {
		if t.HasColumn(k) && k != t.KeyColumn() {
			row[k] = v
		}
	}
	row[t.KeyColumn()] = m.IDs.New()
	if t.OwnerColumn != "" && c.Principal != nil {
		row[t.OwnerColumn] = c.Principal.OwnerRef
	}
	if t.ActiveColumn != "" {
		if _, ok := row[t.ActiveColumn]; !ok {
			row[t.ActiveColumn] = true
		}
	}

	if err := m.Store.Insert(ctx, t, row); err != nil {
		return Result{}, storeFailure(err)
	}
	return Result{Data: t.Visible(row)}, nil
}

func preload(ctx context.Context, c *Call) error {
	row, err := c.LoadOne(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Target = row
	return nil
}

func preloadForUpdate(ctx context.Context, c *Call) error {
	t := c.Model().Table
	for _, k := range sortedKeys(c.Params) {
		if !t.HasColumn(k) || t.IsImmutable(k) {
			return status.Fail(status.UnexpectedInputParameter, status.Args{"key": k, "model": t.TypeName})
		}
	}
	return preload(ctx, c)
}

func updateRow(ctx context.Context, c *Call) (Result, error) {
	m := c.Model()
	t := m.Table

	if len(c.Params) == 0 {
		return Result{Data: t.Visible(c.Target)}, nil
	}

	filters := c.scope()
	filters[t.KeyColumn()] = c.ID

	n, err := m.Store.Update(ctx, t, filters, c.Params)
	if err != nil {
		return Result{}, updateFailure(t, err)
	}
	if n == 0 {
		return Result{}, notFound(m)
	}

	row := make(ports.Record, len(c.Target)+len(c.Params))
	for k, v := range c.Target {
		row[k] = v
	}
	for k, v := range c.Params {
		row[k] = v
	}
	return Result{Data: t.Visible(row)}, nil
}

func removeRow(ctx context.Context, c *Call) (Result, error) {
	m := c.Model()
	t := m.Table

	filters := c.scope()
	filters[t.KeyColumn()] = c.ID

	n, err := m.Store.Delete(ctx, t, filters)
	if err != nil {
		return Result{}, status.Fail(status.DatabaseDeleteFailed, status.Args{"resource": t.TypeName}).Wrap(err)
	}
	if n == 0 {
		return Result{}, notFound(m)
	}
	return Result{Data: t.Visible(c.Target)}, nil
}

func updateFailure(t ports.Table, err error) error {
	if errors.Is(err, ports.ErrDuplicate) {
		return status.Fail(status.DuplicateValue, nil).Wrap(err)
	}
	return status.Fail(status.DatabaseUpdateFailed, status.Args{"resource": t.TypeName}).Wrap(err)
}

func describeModel(m *Model) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s(%s)", m.Table.TypeName, m.Table.Name)
}
