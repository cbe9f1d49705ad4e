package listing

import (
	"testing"

	"github.com/artpar/hoops/domain/status"
)

func TestWindow_SevenRowsFivePerPage(t *testing.T) {
	const total = 7

	tests := []struct {
		page     int
		count    int
		next     *int
		tooHigh  bool
		wantOffs int
	}{
		{page: 1, count: 5, next: intPtr(2), wantOffs: 0},
		{page: 2, count: 2, next: nil, wantOffs: 5},
		{page: 3, tooHigh: true, wantOffs: 10},
	}

	for _, tt := range tests {
		w := Window{Page: tt.page, Limit: 5}
		if got := w.Offset(); got != tt.wantOffs {
			t.Errorf("page %d: Offset() = %d, want %d", tt.page, got, tt.wantOffs)
		}

		err := w.Check(total)
		if tt.tooHigh {
			if !status.HasName(err, status.ValueTooHigh) {
				t.Errorf("page %d: Check() = %v, want %s", tt.page, err, status.ValueTooHigh)
			}
			if e, _ := status.From(err); e != nil && e.Status.Message != "page too high" {
				t.Errorf("page %d: message = %q", tt.page, e.Status.Message)
			}
			continue
		}
		if err != nil {
			t.Errorf("page %d: Check() = %v", tt.page, err)
		}

		got := w.NextPage(tt.count, total)
		switch {
		case tt.next == nil && got != nil:
			t.Errorf("page %d: NextPage = %d, want nil", tt.page, *got)
		case tt.next != nil && (got == nil || *got != *tt.next):
			t.Errorf("page %d: NextPage = %v, want %d", tt.page, got, *tt.next)
		}
	}
}

func TestWindow_EmptyFirstPage(t *testing.T) {
	w := Window{Page: 1, Limit: 10}
	if err := w.Check(0); err != nil {
		t.Errorf("Check(0) on page 1 = %v, want nil", err)
	}
	if w.NextPage(0, 0) != nil {
		t.Error("NextPage on empty set should be nil")
	}
}

func TestSchema_Defaults(t *testing.T) {
	out, errs := Schema([]string{"name"}).Validate(map[string]any{})
	if errs != nil {
		t.Fatalf("errors = %v", errs)
	}
	w, sortBy, dir := FromParams(out)
	if w.Page != 1 || w.Limit != 100 || sortBy != "id" || dir != Asc {
		t.Errorf("FromParams = %+v %q %q", w, sortBy, dir)
	}
}

func TestSchema_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		field string
	}{
		{"limit too high", map[string]any{"limit": "101"}, "limit"},
		{"limit zero", map[string]any{"limit": "0"}, "limit"},
		{"page zero", map[string]any{"page": "0"}, "page"},
		{"unsortable column", map[string]any{"sort_by": "secret"}, "sort_by"},
		{"bad order", map[string]any{"sort_order": "up"}, "sort_order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Schema([]string{"name"}).Validate(tt.input)
			if errs[tt.field] == "" {
				t.Errorf("errors = %v, want entry for %s", errs, tt.field)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	p := Paginate(Window{Page: 1, Limit: 5}, "name", Desc, 5, 7)
	if p.NextPage == nil || *p.NextPage != 2 {
		t.Errorf("NextPage = %v, want 2", p.NextPage)
	}
	if p.SortDir != Desc || p.SortBy != "name" || p.Total != 7 {
		t.Errorf("Paginate = %+v", p)
	}
}

func intPtr(i int) *int { return &i }
