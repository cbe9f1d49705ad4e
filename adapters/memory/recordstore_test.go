package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/hoops/adapters/memory"
	"github.com/artpar/hoops/ports"
)

var languages = ports.Table{
	Name:       "languages",
	TypeName:   "Language",
	Columns:    []string{"name", "rank"},
	Filterable: []string{"name"},
	Sortable:   []string{"name", "rank"},
	Unique:     []string{"name"},
}

func seedLanguages(t *testing.T) *memory.RecordStore {
	t.Helper()
	s := memory.NewRecordStore()
	ctx := context.Background()
	for i, name := range []string{"go", "python", "c", "rust", "zig", "ada", "lua"} {
		r := ports.Record{"id": name, "name": name, "rank": i}
		if err := s.Insert(ctx, languages, r); err != nil {
			t.Fatalf("Insert(%s) failed: %v", name, err)
		}
	}
	return s
}

func TestRecordStore_FindWindowed(t *testing.T) {
	s := seedLanguages(t)
	ctx := context.Background()

	n, err := s.Count(ctx, languages, ports.Query{})
	if err != nil || n != 7 {
		t.Fatalf("Count = %d, %v; want 7", n, err)
	}

	rows, err := s.Find(ctx, languages, ports.Query{SortBy: "name", Offset: 5, Limit: 5})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["name"] != "rust" || rows[1]["name"] != "zig" {
		t.Errorf("rows = %v", rows)
	}

	rows, _ = s.Find(ctx, languages, ports.Query{SortBy: "rank", Desc: true, Limit: 1})
	if rows[0]["name"] != "lua" {
		t.Errorf("top by rank desc = %v, want lua", rows[0]["name"])
	}

	rows, _ = s.Find(ctx, languages, ports.Query{Offset: 50})
	if rows == nil || len(rows) != 0 {
		t.Errorf("past the end = %v, want empty slice", rows)
	}
}

func TestRecordStore_Filters(t *testing.T) {
	s := seedLanguages(t)
	ctx := context.Background()

	rows, _ := s.Find(ctx, languages, ports.Query{Filters: map[string]any{"rank": int64(2)}})
	if len(rows) != 1 || rows[0]["name"] != "c" {
		t.Errorf("rank=2 rows = %v", rows)
	}
}

func TestRecordStore_Duplicate(t *testing.T) {
	s := seedLanguages(t)
	err := s.Insert(context.Background(), languages, ports.Record{"id": "x", "name": "go"})
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("Insert duplicate = %v, want ErrDuplicate", err)
	}
}

func TestRecordStore_UpdateDelete(t *testing.T) {
	s := seedLanguages(t)
	ctx := context.Background()

	n, err := s.Update(ctx, languages, map[string]any{"id": "go"}, ports.Record{"rank": 99})
	if err != nil || n != 1 {
		t.Fatalf("Update = %d, %v", n, err)
	}
	rows, _ := s.Find(ctx, languages, ports.Query{Filters: map[string]any{"id": "go"}})
	if rows[0]["rank"] != 99 {
		t.Errorf("rank = %v, want 99", rows[0]["rank"])
	}

	_, err = s.Update(ctx, languages, map[string]any{"id": "go"}, ports.Record{"name": "rust"})
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("Update to duplicate = %v, want ErrDuplicate", err)
	}

	n, _ = s.Delete(ctx, languages, map[string]any{"id": "go"})
	if n != 1 {
		t.Errorf("Delete = %d, want 1", n)
	}
	n, _ = s.Delete(ctx, languages, map[string]any{"id": "go"})
	if n != 0 {
		t.Errorf("second Delete = %d, want 0", n)
	}
}

func TestRecordStore_FindReturnsCopies(t *testing.T) {
	s := seedLanguages(t)
	ctx := context.Background()

	rows, _ := s.Find(ctx, languages, ports.Query{Filters: map[string]any{"id": "go"}})
	rows[0]["name"] = "mutated"

	rows, _ = s.Find(ctx, languages, ports.Query{Filters: map[string]any{"id": "go"}})
	if rows[0]["name"] != "go" {
		t.Error("Find leaked internal state")
	}
}
