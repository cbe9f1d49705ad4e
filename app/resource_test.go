package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/domain/status"
	"github.com/rs/zerolog"
)

func echo(ctx context.Context, c *Call) (Result, error) {
	return Result{Data: c.CombinedParams()}, nil
}

func TestResource_Select(t *testing.T) {
	rw, err := Build(Spec{Name: "things", Route: "/things", ObjectRoute: "/things/{id}"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ro, err := Build(Spec{Name: "ro", Route: "/ro", ObjectRoute: "/ro/{id}", ReadOnly: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		res    *Resource
		method string
		hasID  bool
		want   OpKind
		fail   status.Name
	}{
		{rw, http.MethodGet, false, OpList, ""},
		{rw, http.MethodGet, true, OpRetrieve, ""},
		{rw, http.MethodPost, false, OpCreate, ""},
		{rw, http.MethodPost, true, OpNone, status.ResourceNotFound},
		{rw, http.MethodPut, true, OpUpdate, ""},
		{rw, http.MethodPut, false, OpNone, status.ResourceNotFound},
		{rw, http.MethodDelete, true, OpRemove, ""},
		{rw, http.MethodDelete, false, OpNone, status.ResourceNotFound},
		{rw, "OPTIONS", false, OpNone, status.InvalidRequestMethod},
		{ro, http.MethodGet, true, OpRetrieve, ""},
		{ro, http.MethodPost, false, OpNone, status.InvalidRequestMethod},
		{ro, http.MethodPut, true, OpNone, status.InvalidRequestMethod},
		{ro, http.MethodDelete, true, OpNone, status.InvalidRequestMethod},
		// identifier checks win over read-only
		{ro, http.MethodPost, true, OpNone, status.ResourceNotFound},
		{ro, http.MethodPut, false, OpNone, status.ResourceNotFound},
		{ro, http.MethodDelete, false, OpNone, status.ResourceNotFound},
	}

	for _, tt := range tests {
		got, err := tt.res.Select(tt.method, tt.hasID)
		if tt.fail != "" {
			if !status.HasName(err, tt.fail) {
				t.Errorf("%s %s id=%v: err = %v, want %s", tt.res.Name(), tt.method, tt.hasID, err, tt.fail)
			}
			if got != OpNone || got.String() != "none" {
				t.Errorf("%s %s id=%v: op = %s, want none", tt.res.Name(), tt.method, tt.hasID, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %s id=%v: err = %v", tt.res.Name(), tt.method, tt.hasID, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s %s id=%v: op = %s, want %s", tt.res.Name(), tt.method, tt.hasID, got, tt.want)
		}
	}
}

func TestResource_UnimplementedBeforeValidation(t *testing.T) {
	res, err := Build(Spec{
		Name:   "things",
		Route:  "/things",
		Schema: schema.New(schema.F("name", schema.String().Require())),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, _, err = res.Handle(context.Background(), Request{Method: http.MethodPost, Body: map[string]any{}})
	if !status.HasName(err, status.CodeNotImplemented) {
		t.Errorf("err = %v, want %s", err, status.CodeNotImplemented)
	}
}

func TestResource_ValidationFailure(t *testing.T) {
	res, err := Build(Spec{
		Name:   "things",
		Route:  "/things",
		Schema: schema.New(schema.F("a", schema.Int().Require())),
		Create: Implemented(echo, WithSchema(schema.New(schema.F("b", schema.Int().Max(5))))),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, _, err = res.Handle(context.Background(), Request{
		Method: http.MethodPost,
		Body:   map[string]any{"b": "9"},
	})
	fields := status.ValidationErrors(err)
	if len(fields) != 2 {
		t.Fatalf("validation errors = %v, want a and b", fields)
	}
}

func TestResource_InputSourceAndStripping(t *testing.T) {
	res, err := Build(Spec{
		Name:        "echo",
		Route:       "/echo",
		ObjectRoute: "/echo/{id}",
		Schema: schema.New(
			schema.F("name", schema.String()),
			schema.F("oauth_nonce", schema.String()),
		),
		URLSchema: schema.New(schema.F("id", schema.Int())),
		List:      Implemented(echo),
		Retrieve:  Implemented(echo, WithSchema(schema.New(schema.F("name", schema.String().Default("dflt"))))),
		Create:    Implemented(echo, WithRenames(schema.Rename{From: "name", To: "title"})),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ctx := context.Background()

	// GET reads the query, ignores the body and strips oauth_* and output_format
	_, out, err := res.Handle(ctx, Request{
		Method: http.MethodGet,
		Query:  map[string]any{"name": "q", "oauth_nonce": "x", "output_format": "xml"},
		Body:   map[string]any{"name": "body"},
	})
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	data := out.Data.(map[string]any)
	if data["name"] != "q" {
		t.Errorf("name = %v, want q", data["name"])
	}
	if _, ok := data["oauth_nonce"]; ok {
		t.Error("oauth_* param reached the handler")
	}
	if out.Status != status.OK {
		t.Errorf("Status = %s, want %s", out.Status, status.OK)
	}

	// URL params win in CombinedParams
	_, out, err = res.Handle(ctx, Request{
		Method:    http.MethodGet,
		ID:        "7",
		URLParams: map[string]string{"id": "7"},
		Query:     map[string]any{},
	})
	if err != nil {
		t.Fatalf("GET id failed: %v", err)
	}
	data = out.Data.(map[string]any)
	if data["id"] != 7 || data["name"] != "dflt" {
		t.Errorf("data = %v", data)
	}

	// invalid URL param
	_, _, err = res.Handle(ctx, Request{Method: http.MethodGet, ID: "x", URLParams: map[string]string{"id": "x"}})
	if status.ValidationErrors(err)["id"] == "" {
		t.Errorf("err = %v, want validation error on id", err)
	}

	// POST reads the body and applies renames
	_, out, err = res.Handle(ctx, Request{Method: http.MethodPost, Body: map[string]any{"name": "n"}})
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	data = out.Data.(map[string]any)
	if data["title"] != "n" {
		t.Errorf("data = %v, want renamed title", data)
	}
	if _, ok := data["name"]; ok {
		t.Error("renamed key kept")
	}
}

func TestResource_SetupRunsBeforeHandler(t *testing.T) {
	var order []string
	res, err := Build(Spec{
		Name:  "s",
		Route: "/s",
		List: Implemented(
			func(ctx context.Context, c *Call) (Result, error) {
				order = append(order, "handler")
				return Result{}, nil
			},
			WithSetup(func(ctx context.Context, c *Call) error {
				order = append(order, "setup")
				return nil
			}),
		),
		Create: Implemented(echo, WithSetup(func(ctx context.Context, c *Call) error {
			return status.Fail(status.Forbidden, nil)
		})),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, _, err := res.Handle(context.Background(), Request{Method: http.MethodGet}); err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if len(order) != 2 || order[0] != "setup" || order[1] != "handler" {
		t.Errorf("order = %v", order)
	}

	_, _, err = res.Handle(context.Background(), Request{Method: http.MethodPost})
	if !status.HasName(err, status.Forbidden) {
		t.Errorf("err = %v, want setup failure", err)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"no name", Spec{Route: "/x"}},
		{"relative route", Spec{Name: "x", Route: "x"}},
		{"object route without id", Spec{Name: "x", Route: "/x", ObjectRoute: "/x/{key}"}},
		{"model op without model", Spec{Name: "x", Route: "/x", List: ModelList()}},
	}
	for _, tt := range tests {
		if _, err := Build(tt.spec); err == nil {
			t.Errorf("%s: Build succeeded, want error", tt.name)
		}
	}
}

func TestCall_CombinedParamsIsDeepCopy(t *testing.T) {
	c := &Call{
		Params:    map[string]any{"a": map[string]any{"x": 1}, "id": "body"},
		URLParams: map[string]any{"id": "url"},
	}
	got := c.CombinedParams()
	if got["id"] != "url" {
		t.Errorf("id = %v, want url", got["id"])
	}
	got["a"].(map[string]any)["x"] = 2
	if c.Params["a"].(map[string]any)["x"] != 1 {
		t.Error("CombinedParams shares nested maps with Params")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	if _, err := r.Register(Spec{Name: "a", Route: "/a", List: Implemented(echo)}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := r.Register(Spec{Name: "a", Route: "/other"}); err == nil {
		t.Error("duplicate name accepted")
	}
	if _, err := r.Register(Spec{Name: "b", Route: "/a"}); err == nil {
		t.Error("duplicate route accepted")
	}

	r.Freeze()
	if _, err := r.Register(Spec{Name: "c", Route: "/c"}); err != ErrFrozen {
		t.Errorf("Register after Freeze = %v, want ErrFrozen", err)
	}
	if len(r.Resources()) != 1 {
		t.Errorf("len(Resources()) = %d, want 1", len(r.Resources()))
	}
	if _, ok := r.Lookup("a"); !ok {
		t.Error("Lookup(a) = false")
	}
}
