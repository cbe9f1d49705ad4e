// Package app provides resources, their operations and the request
// authenticator: the services that orchestrate domain logic per request.
package app

import (
	"context"
	"net/http"

	"github.com/artpar/hoops/domain/oauth1"
	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/domain/status"
)

// OutputFormatParam overrides content negotiation and is never validated.
const OutputFormatParam = "output_format"

// OpKind names one of the five canonical operation slots.
type OpKind int

// OpNone is returned by Select when no operation matches.
const OpNone OpKind = -1

const (
	OpList OpKind = iota
	OpRetrieve
	OpCreate
	OpUpdate
	OpRemove
)

var opNames = [...]string{"list", "retrieve", "create", "update", "remove"}

func (k OpKind) String() string {
	if k == OpNone {
		return "none"
	}
	if k < 0 || int(k) >= len(opNames) {
		return "unknown"
	}
	return opNames[k]
}

// AllOps lists the operation slots in order.
var AllOps = []OpKind{OpList, OpRetrieve, OpCreate, OpUpdate, OpRemove}

// Result is what a handler produces on success.
type Result struct {
	Data   any
	Status status.Name // empty means API_OK
	Extra  map[string]any
}

// Handler executes an operation.
type Handler func(ctx context.Context, c *Call) (Result, error)

// SetupFunc runs after validation and before the handler.
type SetupFunc func(ctx context.Context, c *Call) error

// Operation is either implemented (a handler with its schemas) or
// unimplemented. The zero value is unimplemented.
type Operation struct {
	handler   Handler
	schema    schema.Schema
	urlSchema schema.Schema
	renames   schema.Renames
	setup     SetupFunc
	model     bool
}

// Option configures an implemented operation.
type Option func(*Operation)

// Implemented builds an operation around h.
func Implemented(h Handler, opts ...Option) Operation {
	op := Operation{handler: h}
	for _, opt := range opts {
		opt(&op)
	}
	return op
}

// Unimplemented builds an operation that always fails with
// API_CODE_NOT_IMPLEMENTED.
func Unimplemented() Operation {
	return Operation{}
}

// WithSchema sets the operation-level input schema.
func WithSchema(s schema.Schema) Option {
	return func(op *Operation) { op.schema = s }
}

// WithURLSchema sets the operation-level URL parameter schema.
func WithURLSchema(s schema.Schema) Option {
	return func(op *Operation) { op.urlSchema = s }
}

// WithRenames sets the renames applied after input validation.
func WithRenames(r ...schema.Rename) Option {
	return func(op *Operation) { op.renames = append(schema.Renames(nil), r...) }
}

// WithSetup sets a hook run between validation and execution.
func WithSetup(fn SetupFunc) Option {
	return func(op *Operation) { op.setup = fn }
}

// IsImplemented reports whether the operation has a handler.
func (op Operation) IsImplemented() bool {
	return op.handler != nil
}

// Schema returns the operation-level input schema.
func (op Operation) Schema() schema.Schema { return op.schema }

// URLSchema returns the operation-level URL schema.
func (op Operation) URLSchema() schema.Schema { return op.urlSchema }

// boundOp is an operation with schemas composed against its resource.
type boundOp struct {
	op        Operation
	schema    schema.Schema
	urlSchema schema.Schema
}

// run drives one call through validation, setup and execution. Any
// failure ends the call.
func (b boundOp) run(ctx context.Context, c *Call, req Request) (Result, error) {
	if !b.op.IsImplemented() {
		return Result{}, status.Fail(status.CodeNotImplemented, nil)
	}

	urlParams, err := validateURL(b.urlSchema, req.URLParams)
	if err != nil {
		return Result{}, err
	}
	c.URLParams = urlParams

	params, err := validateInput(b.schema, b.op.renames, req.Input())
	if err != nil {
		return Result{}, err
	}
	c.Params = params

	if b.op.setup != nil {
		if err := b.op.setup(ctx, c); err != nil {
			return Result{}, err
		}
	}

	return b.op.handler(ctx, c)
}

func validateURL(s schema.Schema, raw map[string]string) (map[string]any, error) {
	if s.IsEmpty() {
		return map[string]any{}, nil
	}
	in := make(map[string]any, len(raw))
	for k, v := range raw {
		in[k] = v
	}
	out, errs := s.Validate(in)
	if len(errs) > 0 {
		return nil, status.Validation(errs)
	}
	return out, nil
}

func validateInput(s schema.Schema, renames schema.Renames, raw map[string]any) (map[string]any, error) {
	in := make(map[string]any, len(raw))
	for k, v := range raw {
		if oauth1.IsProtocolParam(k) || k == OutputFormatParam {
			continue
		}
		in[k] = v
	}

	out, errs := s.Validate(in)
	if len(errs) > 0 {
		return nil, status.Validation(errs)
	}

	out, errs = renames.Apply(out)
	if len(errs) > 0 {
		return nil, status.Validation(errs)
	}
	return out, nil
}

// Request is the transport-neutral input of one call.
type Request struct {
	Method    string
	ID        string // object identifier from the route, "" when absent
	URLParams map[string]string
	Query     map[string]any
	Body      map[string]any
	Principal *Principal
}

// HasID reports whether the request addresses a single object.
func (r Request) HasID() bool {
	return r.ID != ""
}

// Input returns the raw parameters to validate: the query string for
// GET and DELETE, the structured body otherwise.
func (r Request) Input() map[string]any {
	switch r.Method {
	case http.MethodGet, http.MethodDelete, http.MethodHead:
		return r.Query
	default:
		return r.Body
	}
}
