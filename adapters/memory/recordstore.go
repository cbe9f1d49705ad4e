// Package memory provides in-memory store implementations for tests and
// single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/hoops/ports"
)

// RecordStore is an in-memory implementation of ports.RecordStore.
// Rows keep insertion order.
type RecordStore struct {
	mu     sync.RWMutex
	tables map[string][]ports.Record
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{tables: make(map[string][]ports.Record)}
}

var _ ports.RecordStore = (*RecordStore)(nil)

// Count returns the number of matching rows.
func (s *RecordStore) Count(ctx context.Context, t ports.Table, q ports.Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.tables[t.Name] {
		if matches(r, q.Filters) {
			n++
		}
	}
	return n, nil
}

// Find returns copies of the matching rows, sorted and windowed.
func (s *RecordStore) Find(ctx context.Context, t ports.Table, q ports.Query) ([]ports.Record, error) {
	if q.SortBy != "" && !t.HasColumn(q.SortBy) {
		return nil, fmt.Errorf("table %s: unknown sort column %q", t.Name, q.SortBy)
	}

	s.mu.RLock()
	var rows []ports.Record
	for _, r := range s.tables[t.Name] {
		if matches(r, q.Filters) {
			rows = append(rows, clone(r))
		}
	}
	s.mu.RUnlock()

	if q.SortBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			c := compare(rows[i][q.SortBy], rows[j][q.SortBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			return []ports.Record{}, nil
		}
		rows = rows[q.Offset:]
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	if rows == nil {
		rows = []ports.Record{}
	}
	return rows, nil
}

// Insert stores a copy of r.
func (s *RecordStore) Insert(ctx context.Context, t ports.Table, r ports.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tables[t.Name] {
		if violatesUnique(t, existing, r) {
			return ports.ErrDuplicate
		}
	}
	s.tables[t.Name] = append(s.tables[t.Name], clone(r))
	return nil
}

// Update applies changes to every matching row.
func (s *RecordStore) Update(ctx context.Context, t ports.Table, filters map[string]any, changes ports.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[t.Name]
	var n int64
	for i, r := range rows {
		if !matches(r, filters) {
			continue
		}
		updated := clone(r)
		for k, v := range changes {
			updated[k] = v
		}
		for j, other := range rows {
			if j != i && violatesUnique(t, other, updated) {
				return 0, ports.ErrDuplicate
			}
		}
		rows[i] = updated
		n++
	}
	return n, nil
}

// Delete removes every matching row.
func (s *RecordStore) Delete(ctx context.Context, t ports.Table, filters map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[t.Name]
	kept := rows[:0]
	var n int64
	for _, r := range rows {
		if matches(r, filters) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[t.Name] = kept
	return n, nil
}

// Seed inserts rows without constraint checks.
func (s *RecordStore) Seed(t ports.Table, rows ...ports.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[t.Name] = append(s.tables[t.Name], clone(r))
	}
}

func violatesUnique(t ports.Table, a, b ports.Record) bool {
	for _, c := range append([]string{t.KeyColumn()}, t.Unique...) {
		av, aok := a[c]
		bv, bok := b[c]
		if aok && bok && av != nil && equal(av, bv) {
			return true
		}
	}
	return false
}

func matches(r ports.Record, filters map[string]any) bool {
	for k, want := range filters {
		if !equal(r[k], want) {
			return false
		}
	}
	return true
}

func clone(r ports.Record) ports.Record {
	out := make(ports.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func equal(a, b any) bool {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
	}
	return a == b
}

// compare orders nil first, then numbers, then everything else by text.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
