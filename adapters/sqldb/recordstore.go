package sqldb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/hoops/ports"
)

// RecordStore implements ports.RecordStore over SQL tables.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new record store.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

var _ ports.RecordStore = (*RecordStore)(nil)

// Count returns the number of rows matching q.Filters.
func (s *RecordStore) Count(ctx context.Context, t ports.Table, q ports.Query) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	where, args, err := whereClause(t, q.Filters)
	if err != nil {
		return 0, err
	}

	var n int
	query := s.db.Rebind("SELECT COUNT(*) FROM " + t.Name + where)
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

// Find returns the rows matching q. Rows with equal sort values are
// ordered by key.
func (s *RecordStore) Find(ctx context.Context, t ports.Table, q ports.Query) ([]ports.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if q.SortBy != "" && !t.HasColumn(q.SortBy) {
		return nil, fmt.Errorf("table %s: unknown sort column %q", t.Name, q.SortBy)
	}
	where, args, err := whereClause(t, q.Filters)
	if err != nil {
		return nil, err
	}

	key := t.KeyColumn()
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(append([]string{key}, t.Columns...), ", "))
	b.WriteString(" FROM ")
	b.WriteString(t.Name)
	b.WriteString(where)
	b.WriteString(" ORDER BY ")
	if q.SortBy != "" && q.SortBy != key {
		b.WriteString(q.SortBy)
		if q.Desc {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.WriteString(key)
	if q.Desc && q.SortBy == key {
		b.WriteString(" DESC")
	}
	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	case q.Offset > 0:
		b.WriteString(s.noLimit())
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := []ports.Record{}
	for rows.Next() {
		r := make(map[string]any)
		if err := rows.MapScan(r); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		for k, v := range r {
			if raw, ok := v.([]byte); ok {
				r[k] = string(raw)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", t.Name, err)
	}
	return out, nil
}

// Insert stores r. Columns absent from r take their SQL defaults.
func (s *RecordStore) Insert(ctx context.Context, t ports.Table, r ports.Record) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cols := sortedKeys(r)
	for _, c := range cols {
		if !t.HasColumn(c) {
			return fmt.Errorf("table %s: unknown column %q", t.Name, c)
		}
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = r[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert %s: %w", t.Name, ports.ErrDuplicate)
		}
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return nil
}

// Update applies changes to the rows matching filters. With no changes it
// reports how many rows match.
func (s *RecordStore) Update(ctx context.Context, t ports.Table, filters map[string]any, changes ports.Record) (int64, error) {
	if len(changes) == 0 {
		n, err := s.Count(ctx, t, ports.Query{Filters: filters})
		return int64(n), err
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}

	cols := sortedKeys(changes)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, c := range cols {
		if !t.HasColumn(c) {
			return 0, fmt.Errorf("table %s: unknown column %q", t.Name, c)
		}
		sets[i] = c + " = ?"
		args = append(args, changes[c])
	}
	where, whereArgs, err := whereClause(t, filters)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := "UPDATE " + t.Name + " SET " + strings.Join(sets, ", ") + where
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		if isDuplicate(err) {
			return 0, fmt.Errorf("update %s: %w", t.Name, ports.ErrDuplicate)
		}
		return 0, fmt.Errorf("update %s: %w", t.Name, err)
	}
	return result.RowsAffected()
}

// Delete removes the rows matching filters.
func (s *RecordStore) Delete(ctx context.Context, t ports.Table, filters map[string]any) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	where, args, err := whereClause(t, filters)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM "+t.Name+where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Name, err)
	}
	return result.RowsAffected()
}

func (s *RecordStore) noLimit() string {
	if s.db.DriverName() == DriverPostgres {
		return " LIMIT ALL"
	}
	return " LIMIT -1"
}

// whereClause renders equality filters in key order; nil matches NULL.
func whereClause(t ports.Table, filters map[string]any) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	cols := sortedKeys(filters)
	conds := make([]string, len(cols))
	var args []any
	for i, c := range cols {
		if !t.HasColumn(c) {
			return "", nil, fmt.Errorf("table %s: unknown filter column %q", t.Name, c)
		}
		if filters[c] == nil {
			conds[i] = c + " IS NULL"
			continue
		}
		conds[i] = c + " = ?"
		args = append(args, filters[c])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
