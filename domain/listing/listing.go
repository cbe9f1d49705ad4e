// Package listing provides the window arithmetic behind paginated lists.
// This package has NO dependencies on I/O.
package listing

import (
	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/domain/status"
)

// Universal list parameter names.
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSortBy    = "sort_by"
	ParamSortOrder = "sort_order"
)

// Defaults and bounds of the list parameters.
const (
	DefaultPage   = 1
	DefaultLimit  = 100
	MaxLimit      = 100
	DefaultSortBy = "id"
)

// SortDir is the ordering direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Window is one page of a list.
type Window struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before the window.
func (w Window) Offset() int {
	if w.Page < 1 {
		return 0
	}
	return (w.Page - 1) * w.Limit
}

// Check rejects a window that starts past the end of the result set.
// Page 1 is always valid, even when the set is empty.
func (w Window) Check(total int) error {
	if w.Page > 1 && w.Offset() >= total {
		return status.Fail(status.ValueTooHigh, status.Args{"value": ParamPage})
	}
	return nil
}

// NextPage returns the following page number when rows remain after the
// window, or nil.
func (w Window) NextPage(count, total int) *int {
	if w.Offset()+count < total {
		next := w.Page + 1
		return &next
	}
	return nil
}

// Pagination is the metadata attached to list envelopes.
type Pagination struct {
	Page     int     `json:"page" xml:"page" yaml:"page" cbor:"page"`
	Limit    int     `json:"limit" xml:"limit" yaml:"limit" cbor:"limit"`
	Total    int     `json:"total" xml:"total" yaml:"total" cbor:"total"`
	NextPage *int    `json:"next_page" xml:"next_page" yaml:"next_page" cbor:"next_page"`
	SortBy   string  `json:"sort_by" xml:"sort_by" yaml:"sort_by" cbor:"sort_by"`
	SortDir  SortDir `json:"sort_dir" xml:"sort_dir" yaml:"sort_dir" cbor:"sort_dir"`
}

// Paginate builds the metadata for a page holding count rows.
// This is a PURE function.
func Paginate(w Window, sortBy string, dir SortDir, count, total int) Pagination {
	return Pagination{
		Page:     w.Page,
		Limit:    w.Limit,
		Total:    total,
		NextPage: w.NextPage(count, total),
		SortBy:   sortBy,
		SortDir:  dir,
	}
}

// Schema returns the list parameter schema for a model whose rows may be
// sorted by the given columns. An empty list allows only the default
// sort column.
func Schema(sortable []string) schema.Schema {
	columns := make([]any, 0, len(sortable)+1)
	seen := map[string]bool{}
	for _, c := range append([]string{DefaultSortBy}, sortable...) {
		if !seen[c] {
			seen[c] = true
			columns = append(columns, c)
		}
	}

	return schema.New(
		schema.F(ParamPage, schema.Int().Min(1).Default(DefaultPage).
			Describe("Page number, starting at 1")),
		schema.F(ParamLimit, schema.Int().Between(1, MaxLimit).Default(DefaultLimit).
			Describe("Maximum number of rows per page")),
		schema.F(ParamSortBy, schema.OneOf(columns...).Default(DefaultSortBy).
			Describe("Column to sort by")),
		schema.F(ParamSortOrder, schema.OneOf(string(Asc), string(Desc)).Default(string(Asc)).
			Describe("Sort direction")),
	)
}

// FromParams extracts the window and ordering from validated list params.
func FromParams(params map[string]any) (Window, string, SortDir) {
	w := Window{Page: DefaultPage, Limit: DefaultLimit}
	if p, ok := params[ParamPage].(int); ok {
		w.Page = p
	}
	if l, ok := params[ParamLimit].(int); ok {
		w.Limit = l
	}
	sortBy := DefaultSortBy
	if s, ok := params[ParamSortBy].(string); ok && s != "" {
		sortBy = s
	}
	dir := Asc
	if d, ok := params[ParamSortOrder].(string); ok && SortDir(d) == Desc {
		dir = Desc
	}
	return w, sortBy, dir
}
