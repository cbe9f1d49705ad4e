package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	hoopshttp "github.com/artpar/hoops/adapters/http"
	"github.com/artpar/hoops/app"
	"github.com/artpar/hoops/domain/schema"
	"github.com/rs/zerolog"
)

func TestOpenAPI_Document(t *testing.T) {
	reg := app.NewRegistry(zerolog.Nop())
	reg.MustRegister(app.Spec{
		Name:        "notes",
		Route:       "/notes",
		ObjectRoute: "/notes/{id}",
		Description: "Personal notes",
		List:        app.Implemented(echo, app.WithSchema(schema.New(schema.F("title", schema.String().MaxLen(50))))),
		Create:      app.Implemented(echo, app.WithSchema(schema.New(schema.F("title", schema.String().Require())))),
		Retrieve:    app.Implemented(echo),
	})
	reg.MustRegister(app.Spec{Name: "languages", Route: "/languages", ReadOnly: true, List: app.Implemented(echo), Create: app.Implemented(echo)})

	doc := hoopshttp.OpenAPI(reg, hoopshttp.OpenAPIInfo{Title: "t", Version: "1", Authenticated: true, Formats: []string{"json", "xml"}})

	paths := doc["paths"].(map[string]any)
	notes, ok := paths["/notes"].(map[string]any)
	if !ok {
		t.Fatalf("paths = %v", paths)
	}
	if _, ok := notes["get"]; !ok {
		t.Error("/notes get missing")
	}
	if _, ok := notes["post"]; !ok {
		t.Error("/notes post missing")
	}
	object := paths["/notes/{id}"].(map[string]any)
	if _, ok := object["put"]; ok {
		t.Error("unimplemented update documented")
	}
	if _, ok := paths["/languages"].(map[string]any)["post"]; ok {
		t.Error("read-only create documented")
	}

	list := notes["get"].(map[string]any)
	params := list["parameters"].([]any)
	var title map[string]any
	for _, p := range params {
		if m := p.(map[string]any); m["name"] == "title" {
			title = m
		}
	}
	if title == nil || title["in"] != "query" {
		t.Fatalf("title parameter = %v", title)
	}
	if title["schema"].(map[string]any)["maxLength"] != 50 {
		t.Errorf("title schema = %v", title["schema"])
	}

	create := notes["post"].(map[string]any)
	body := create["requestBody"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	if req := body["required"].([]any); len(req) != 1 || req[0] != "title" {
		t.Errorf("required = %v", body["required"])
	}

	retrieve := object["get"].(map[string]any)
	first := retrieve["parameters"].([]any)[0].(map[string]any)
	if first["name"] != "id" || first["in"] != "path" {
		t.Errorf("first retrieve parameter = %v", first)
	}

	if _, ok := doc["security"]; !ok {
		t.Error("security missing for an authenticated API")
	}
}

func TestOpenAPI_Served(t *testing.T) {
	s := newServer(t, hoopshttp.Config{})

	rec := s.do(httptest.NewRequest("GET", "/.well-known/openapi.json", nil))
	if rec.Code != 200 {
		t.Fatalf("HTTP %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
	if _, ok := doc["paths"].(map[string]any)["/things/{id}"]; !ok {
		t.Errorf("paths = %v", doc["paths"])
	}
}
