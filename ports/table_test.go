package ports

import "testing"

func TestTable_Validate(t *testing.T) {
	good := Table{
		Name:        "notes",
		Columns:     []string{"title", "owner_ref"},
		Filterable:  []string{"title"},
		Sortable:    []string{"title"},
		OwnerColumn: "owner_ref",
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	tests := []struct {
		name string
		t    Table
	}{
		{"bad table name", Table{Name: "notes; drop"}},
		{"bad column", Table{Name: "n", Columns: []string{"a b"}}},
		{"unknown sortable", Table{Name: "n", Columns: []string{"a"}, Sortable: []string{"b"}}},
		{"unknown owner", Table{Name: "n", OwnerColumn: "owner"}},
		{"filterable owner", Table{Name: "n", Columns: []string{"owner"}, Filterable: []string{"owner"}, OwnerColumn: "owner"}},
		{"filterable active", Table{Name: "n", Columns: []string{"active"}, Filterable: []string{"active"}, ActiveColumn: "active"}},
	}
	for _, tt := range tests {
		if err := tt.t.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestTable_Columns(t *testing.T) {
	tbl := Table{
		Name:        "accounts",
		Columns:     []string{"email", "password_hash", "owner_ref"},
		Hidden:      []string{"password_hash"},
		Immutable:   []string{"email"},
		OwnerColumn: "owner_ref",
	}

	if tbl.KeyColumn() != "id" || !tbl.HasColumn("id") {
		t.Error("default key column should be id")
	}
	for _, c := range []string{"id", "email", "owner_ref"} {
		if !tbl.IsImmutable(c) {
			t.Errorf("IsImmutable(%q) = false", c)
		}
	}
	if tbl.IsImmutable("password_hash") {
		t.Error("IsImmutable(password_hash) = true")
	}

	v := tbl.Visible(Record{"id": "1", "password_hash": "x"})
	if _, ok := v["password_hash"]; ok {
		t.Error("Visible kept hidden column")
	}
	if v["id"] != "1" {
		t.Errorf("Visible = %v", v)
	}
}
