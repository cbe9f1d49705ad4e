package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/artpar/hoops/domain/listing"
	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/domain/status"
)

// DefaultObjectIDParam is the route parameter naming the object id.
const DefaultObjectIDParam = "id"

// Spec declares a resource. It is turned into an immutable Resource by
// Build.
type Spec struct {
	Name          string
	Route         string // e.g. "/notes"
	ObjectRoute   string // e.g. "/notes/{id}", optional
	ObjectIDParam string // defaults to "id"
	ReadOnly      bool
	Description   string

	// Resource-level schemas, composed under every operation's own.
	Schema    schema.Schema
	URLSchema schema.Schema

	// Model is required by the Model* operations.
	Model *Model

	List     Operation
	Retrieve Operation
	Create   Operation
	Update   Operation
	Remove   Operation
}

// Resource is a registered, fully composed resource. It is safe for
// concurrent use.
type Resource struct {
	name        string
	route       string
	objectRoute string
	idParam     string
	readOnly    bool
	description string
	model       *Model
	ops         [len(opNames)]boundOp
}

// Build validates spec and composes its schemas.
func Build(spec Spec) (*Resource, error) {
	if spec.Name == "" {
		return nil, errors.New("resource name is required")
	}
	if !strings.HasPrefix(spec.Route, "/") {
		return nil, fmt.Errorf("resource %s: route %q must start with /", spec.Name, spec.Route)
	}

	idParam := spec.ObjectIDParam
	if idParam == "" {
		idParam = DefaultObjectIDParam
	}
	if spec.ObjectRoute != "" && !strings.Contains(spec.ObjectRoute, "{"+idParam+"}") {
		return nil, fmt.Errorf("resource %s: object route %q lacks {%s}", spec.Name, spec.ObjectRoute, idParam)
	}

	if spec.Model != nil {
		if err := spec.Model.validate(); err != nil {
			return nil, fmt.Errorf("resource %s: %w", spec.Name, err)
		}
	}

	r := &Resource{
		name:        spec.Name,
		route:       spec.Route,
		objectRoute: spec.ObjectRoute,
		idParam:     idParam,
		readOnly:    spec.ReadOnly,
		description: spec.Description,
		model:       spec.Model,
	}

	slots := [len(opNames)]Operation{spec.List, spec.Retrieve, spec.Create, spec.Update, spec.Remove}
	for _, kind := range AllOps {
		op := slots[kind]
		if op.model && spec.Model == nil {
			return nil, fmt.Errorf("resource %s: %s operation needs a model", spec.Name, kind)
		}

		s := schema.Compose(spec.Schema, op.schema)
		if kind == OpList && op.model {
			s = schema.Compose(listing.Schema(spec.Model.Table.Sortable), s)
		}
		r.ops[kind] = boundOp{
			op:        op,
			schema:    s,
			urlSchema: schema.Compose(spec.URLSchema, op.urlSchema),
		}
	}

	return r, nil
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Route returns the collection route.
func (r *Resource) Route() string { return r.route }

// ObjectRoute returns the object route, or "".
func (r *Resource) ObjectRoute() string { return r.objectRoute }

// ObjectIDParam returns the route parameter holding the object id.
func (r *Resource) ObjectIDParam() string { return r.idParam }

// ReadOnly reports whether writes are refused.
func (r *Resource) ReadOnly() bool { return r.readOnly }

// Description returns the resource description.
func (r *Resource) Description() string { return r.description }

// Implemented reports whether the operation slot has a handler.
func (r *Resource) Implemented(kind OpKind) bool {
	return r.ops[kind].op.IsImplemented()
}

// Schema returns the composed input schema of an operation.
func (r *Resource) Schema(kind OpKind) schema.Schema {
	return r.ops[kind].schema
}

// URLSchema returns the composed URL schema of an operation.
func (r *Resource) URLSchema(kind OpKind) schema.Schema {
	return r.ops[kind].urlSchema
}

// Select maps a verb and the presence of an object id to an operation.
// Identifier checks come before the read-only check.
func (r *Resource) Select(method string, hasID bool) (OpKind, error) {
	switch method {
	case http.MethodGet, http.MethodHead:
		if hasID {
			return OpRetrieve, nil
		}
		return OpList, nil
	case http.MethodPost:
		if hasID {
			return OpNone, status.Fail(status.ResourceNotFound, nil)
		}
		if r.readOnly {
			return OpNone, status.Fail(status.InvalidRequestMethod, nil)
		}
		return OpCreate, nil
	case http.MethodPut, http.MethodPatch:
		if !hasID {
			return OpNone, status.Fail(status.ResourceNotFound, nil)
		}
		if r.readOnly {
			return OpNone, status.Fail(status.InvalidRequestMethod, nil)
		}
		return OpUpdate, nil
	case http.MethodDelete:
		if !hasID {
			return OpNone, status.Fail(status.ResourceNotFound, nil)
		}
		if r.readOnly {
			return OpNone, status.Fail(status.InvalidRequestMethod, nil)
		}
		return OpRemove, nil
	default:
		return OpNone, status.Fail(status.InvalidRequestMethod, nil)
	}
}

// Handle selects and runs the operation for req. The selected kind is
// returned even on failure, OpNone when selection failed.
func (r *Resource) Handle(ctx context.Context, req Request) (OpKind, Result, error) {
	kind, err := r.Select(req.Method, req.HasID())
	if err != nil {
		return kind, Result{}, err
	}

	c := &Call{
		Resource:  r,
		Op:        kind,
		ID:        req.ID,
		Principal: req.Principal,
	}
	res, err := r.ops[kind].run(ctx, c, req)
	if err != nil {
		return kind, Result{}, err
	}
	if res.Status == "" {
		res.Status = status.OK
	}
	return kind, res, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
