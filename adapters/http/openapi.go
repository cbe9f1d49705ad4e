package http

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/artpar/hoops/app"
	"github.com/artpar/hoops/domain/listing"
	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/domain/status"
)

// OpenAPIInfo describes the API in the generated document.
type OpenAPIInfo struct {
	Title         string
	Version       string
	Description   string
	Authenticated bool
	Formats       []string // output_format values
}

var routeParam = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

const envelopeRef = "#/components/schemas/Envelope"

// OpenAPI builds an OpenAPI 3 document describing every resource in
// registry. Only implemented operations are listed.
func OpenAPI(registry *app.Registry, info OpenAPIInfo) map[string]any {
	paths := map[string]any{}
	for _, res := range registry.Resources() {
		collection := map[string]any{}
		if res.Implemented(app.OpList) {
			collection["get"] = openAPIOperation(res, app.OpList, res.Route(), info)
		}
		if res.Implemented(app.OpCreate) && !res.ReadOnly() {
			collection["post"] = openAPIOperation(res, app.OpCreate, res.Route(), info)
		}
		if len(collection) > 0 {
			paths[openAPIPath(res.Route())] = collection
		}

		if res.ObjectRoute() == "" {
			continue
		}
		object := map[string]any{}
		if res.Implemented(app.OpRetrieve) {
			object["get"] = openAPIOperation(res, app.OpRetrieve, res.ObjectRoute(), info)
		}
		if !res.ReadOnly() {
			if res.Implemented(app.OpUpdate) {
				object["put"] = openAPIOperation(res, app.OpUpdate, res.ObjectRoute(), info)
			}
			if res.Implemented(app.OpRemove) {
				object["delete"] = openAPIOperation(res, app.OpRemove, res.ObjectRoute(), info)
			}
		}
		if len(object) > 0 {
			paths[openAPIPath(res.ObjectRoute())] = object
		}
	}

	doc := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       info.Title,
			"version":     info.Version,
			"description": info.Description,
		},
		"paths": paths,
		"components": map[string]any{
			"schemas": map[string]any{"Envelope": envelopeSchema()},
		},
	}
	if info.Authenticated {
		components := doc["components"].(map[string]any)
		components["securitySchemes"] = map[string]any{
			"oauth1": map[string]any{
				"type":        "apiKey",
				"in":          "header",
				"name":        "Authorization",
				"description": "OAuth 1.0 HMAC-SHA1 signed request. Protocol parameters may also be sent in the query or a form body.",
			},
		}
		doc["security"] = []any{map[string]any{"oauth1": []any{}}}
	}
	return doc
}

// openAPIPath strips chi regexp constraints: /notes/{id:[0-9]+} -> /notes/{id}.
func openAPIPath(route string) string {
	return routeParam.ReplaceAllString(route, "{$1}")
}

func openAPIOperation(res *app.Resource, kind app.OpKind, route string, info OpenAPIInfo) map[string]any {
	op := map[string]any{
		"operationId": res.Name() + "_" + kind.String(),
		"summary":     kind.String() + " " + res.Name(),
		"tags":        []any{res.Name()},
		"responses": map[string]any{
			"200": envelopeResponse("Success"),
			"default": envelopeResponse("Failure; response_data is null"),
		},
	}
	if res.Description() != "" {
		op["description"] = res.Description()
	}

	urlSchema := res.URLSchema(kind)
	var params []any
	for _, m := range routeParam.FindAllStringSubmatch(route, -1) {
		name := m[1]
		p := map[string]any{"name": name, "in": "path", "required": true, "schema": map[string]any{"type": "string"}}
		if v, ok := urlSchema.Get(name); ok {
			p["schema"] = fieldSchema(v)
		}
		params = append(params, p)
	}

	input := res.Schema(kind)
	if kind == app.OpList || kind == app.OpRetrieve || kind == app.OpRemove {
		for _, f := range input.Fields() {
			p := map[string]any{"name": f.Name, "in": "query", "required": f.Validator.Required, "schema": fieldSchema(f.Validator)}
			if f.Validator.Description != "" {
				p["description"] = f.Validator.Description
			}
			params = append(params, p)
		}
	} else {
		body := objectSchema(input)
		op["requestBody"] = map[string]any{
			"content": map[string]any{
				jsonMedia: map[string]any{"schema": body},
				formMedia: map[string]any{"schema": body},
			},
		}
	}

	if len(info.Formats) > 0 {
		formats := make([]any, len(info.Formats))
		for i, f := range info.Formats {
			formats[i] = f
		}
		params = append(params, map[string]any{
			"name":     app.OutputFormatParam,
			"in":       "query",
			"required": false,
			"schema":   map[string]any{"type": "string", "enum": formats},
		})
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func objectSchema(s schema.Schema) map[string]any {
	props := map[string]any{}
	var required []any
	for _, f := range s.Fields() {
		props[f.Name] = fieldSchema(f.Validator)
		if f.Validator.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	if s.IsStrict() {
		out["additionalProperties"] = false
	}
	return out
}

func fieldSchema(v schema.Validator) map[string]any {
	out := map[string]any{}
	switch v.Kind {
	case schema.KindString:
		out["type"] = "string"
	case schema.KindInt:
		out["type"] = "integer"
	case schema.KindFloat:
		out["type"] = "number"
	case schema.KindBool:
		out["type"] = "boolean"
	case schema.KindOneOf:
		out["enum"] = v.Values()
	}
	if min, max := v.Bounds(); min != nil || max != nil {
		if min != nil {
			out["minimum"] = *min
		}
		if max != nil {
			out["maximum"] = *max
		}
	}
	if min, max := v.Lengths(); min != nil || max != nil {
		if min != nil {
			out["minLength"] = *min
		}
		if max != nil {
			out["maxLength"] = *max
		}
	}
	if p := v.Pattern(); p != "" {
		out["pattern"] = p
	}
	if rules := v.Rules(); len(rules) > 0 {
		out["x-expect"] = rules
	}
	if d, ok := v.DefaultValue(); ok {
		out["default"] = d
	}
	if v.Description != "" {
		out["description"] = v.Description
	}
	return out
}

func envelopeResponse(description string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			jsonMedia: map[string]any{"schema": map[string]any{"$ref": envelopeRef}},
		},
	}
}

func envelopeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_version":    map[string]any{"type": "string"},
			"response_data":  map[string]any{"nullable": true},
			"status_code":    map[string]any{"type": "integer", "example": 1000},
			"status_message": map[string]any{"type": "string", "example": "Ok"},
			status.ExtraPagination: map[string]any{
				"type": "object",
				"properties": map[string]any{
					listing.ParamPage:  map[string]any{"type": "integer"},
					listing.ParamLimit: map[string]any{"type": "integer"},
					"total":            map[string]any{"type": "integer"},
					"next_page":        map[string]any{"type": "integer", "nullable": true},
					"sort_by":          map[string]any{"type": "string"},
					"sort_dir":         map[string]any{"type": "string", "enum": []any{"asc", "desc"}},
				},
			},
			status.ExtraValidationErrors: map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": []any{"api_version", "response_data", "status_code", "status_message"},
	}
}

// OpenAPIHandler serves doc as JSON.
func OpenAPIHandler(doc map[string]any) http.HandlerFunc {
	body, err := json.MarshalIndent(doc, "", "  ")
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Write(body)
	}
}
