package http

import (
	"bytes"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/artpar/hoops/adapters/metrics"
	"github.com/artpar/hoops/app"
	"github.com/artpar/hoops/domain/envelope"
	"github.com/artpar/hoops/domain/status"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config configures the Dispatcher.
type Config struct {
	APIVersion           string
	Debug                bool  // attach exception and traceback to unhandled failures
	MaxBodyBytes         int64 // 0 means unlimited
	RequireContentLength bool  // refuse bodies without Content-Length with 411
}

// transportStatuses maps HTTP errors raised outside any operation.
var transportStatuses = map[int]status.Name{
	http.StatusOK:                    status.OK,
	http.StatusForbidden:             status.Forbidden,
	http.StatusNotFound:              status.ResourceNotFound,
	http.StatusMethodNotAllowed:      status.InvalidRequestMethod,
	http.StatusLengthRequired:        status.ContentLengthMissing,
	http.StatusRequestEntityTooLarge: status.RequestEntityTooLarge,
	http.StatusInternalServerError:   status.UnhandledException,
	http.StatusNotImplemented:        status.CodeNotImplemented,
}

// TransportStatus returns the status for an HTTP error code. Codes without
// a fixed mapping get a synthesized status.
func TransportStatus(code int) status.Status {
	if name, ok := transportStatuses[code]; ok {
		return status.Must(name)
	}
	return status.Synthesize(code, http.StatusText(code))
}

// Frame is one traceback entry.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// Dispatcher serves registered resources. Every response it writes is an
// envelope in the negotiated representation.
type Dispatcher struct {
	registry   *app.Registry
	negotiator *Negotiator
	auth       *app.Authenticator
	throttle   *Throttle
	metrics    *metrics.Collector
	logger     zerolog.Logger
	errLogger  zerolog.Logger

	apiVersion    string
	maxBody       int64
	requireLength bool
	debug         atomic.Bool
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *app.Registry, negotiator *Negotiator, logger zerolog.Logger, cfg Config) *Dispatcher {
	d := &Dispatcher{
		registry:      registry,
		negotiator:    negotiator,
		logger:        logger.With().Str("component", "request").Logger(),
		errLogger:     logger.With().Str("component", "error").Logger(),
		apiVersion:    cfg.APIVersion,
		maxBody:       cfg.MaxBodyBytes,
		requireLength: cfg.RequireContentLength,
	}
	d.debug.Store(cfg.Debug)
	return d
}

// SetAuthenticator requires every call to be signed.
func (d *Dispatcher) SetAuthenticator(a *app.Authenticator) {
	d.auth = a
}

// SetThrottle enables request throttling.
func (d *Dispatcher) SetThrottle(t *Throttle) {
	d.throttle = t
}

// SetMetrics enables per-call metrics.
func (d *Dispatcher) SetMetrics(m *metrics.Collector) {
	d.metrics = m
}

// SetDebug toggles debug detail on unhandled failures. Safe to call while
// serving.
func (d *Dispatcher) SetDebug(on bool) {
	d.debug.Store(on)
}

// Debug reports whether debug detail is enabled.
func (d *Dispatcher) Debug() bool {
	return d.debug.Load()
}

// Registry returns the served registry.
func (d *Dispatcher) Registry() *app.Registry {
	return d.registry
}

// Mount routes every registered resource on r.
func (d *Dispatcher) Mount(r chi.Router) {
	for _, res := range d.registry.Resources() {
		h := d.Resource(res)
		r.Handle(res.Route(), h)
		if res.ObjectRoute() != "" {
			r.Handle(res.ObjectRoute(), h)
		}
	}
}

// Transport renders a transport-level error such as an unknown route.
func (d *Dispatcher) Transport(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := d.negotiator.Negotiate(r, nil)
		d.write(w, r, rep, envelope.Build(d.apiVersion, nil, TransportStatus(code), nil))
	}
}

// Resource returns the handler serving res.
func (d *Dispatcher) Resource(res *app.Resource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in := readInbound(w, r, d.maxBody, d.requireLength)
		rep := d.negotiator.Negotiate(r, in.raw)

		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			err := fmt.Errorf("panic: %v", p)
			env := d.unhandled(r, err, err.Error(), callers(3))
			d.observe(res, "panic", env, err)
			d.write(w, r, rep, env)
		}()

		op, result, err := d.call(r, res, in)
		env := d.envelope(r, result, err)
		d.observe(res, op, env, err)
		d.write(w, r, rep, env)
	})
}

// call authenticates, throttles and runs the operation. op is the
// operation label, "none" when no operation was selected.
func (d *Dispatcher) call(r *http.Request, res *app.Resource, in inbound) (string, app.Result, error) {
	const none = "none"
	if in.err != nil {
		return none, app.Result{}, in.err
	}
	ctx := r.Context()

	var principal *app.Principal
	if d.auth != nil {
		p, err := d.auth.Authenticate(ctx, signedRequest(r, in))
		if err != nil {
			if d.metrics != nil {
				if e, ok := status.From(err); ok {
					d.metrics.AuthFailures.WithLabelValues(string(e.Status.Name)).Inc()
				}
			}
			return none, app.Result{}, err
		}
		principal = &p
		if info := infoFrom(ctx); info != nil {
			info.consumer = p.ConsumerKey
		}
	}

	if d.throttle != nil && !d.throttle.Allow(throttleKey(r, principal)) {
		if d.metrics != nil {
			d.metrics.ThrottledTotal.Inc()
		}
		return none, app.Result{}, status.Fail(status.TooManyRequests, nil)
	}

	req := app.Request{
		Method:    r.Method,
		ID:        chi.URLParam(r, res.ObjectIDParam()),
		URLParams: routeParams(r),
		Query:     in.query,
		Body:      in.body,
		Principal: principal,
	}
	kind, result, err := res.Handle(ctx, req)
	return kind.String(), result, err
}

func throttleKey(r *http.Request, p *app.Principal) string {
	if p != nil {
		return "consumer:" + p.ConsumerKey
	}
	return "ip:" + clientIP(r)
}

// envelope turns the outcome of a call into the response document.
func (d *Dispatcher) envelope(r *http.Request, result app.Result, err error) envelope.Envelope {
	if err == nil {
		st, lookupErr := status.Get(result.Status, nil)
		switch {
		case lookupErr != nil:
			err = lookupErr
		case st.IsFailure():
			err = &status.Error{Status: st, Extra: result.Extra}
		default:
			return envelope.Build(d.apiVersion, result.Data, st, result.Extra)
		}
	}

	if e, ok := status.From(err); ok {
		d.logFailure(r, e)
		return envelope.FromError(d.apiVersion, e)
	}
	return d.unhandled(r, err, fmt.Sprintf("%T: %v", err, err), callers(2))
}

func (d *Dispatcher) logFailure(r *http.Request, e *status.Error) {
	event := d.logger.Debug()
	if e.HTTPStatus() >= http.StatusInternalServerError {
		event = d.errLogger.Error()
	}
	if e.Cause != nil {
		event = event.AnErr("cause", e.Cause)
	}
	event.
		Str("status", string(e.Status.Name)).
		Int("status_code", e.Status.Code).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("request failed")
}

// unhandled logs err and builds the API_UNHANDLED_EXCEPTION envelope.
func (d *Dispatcher) unhandled(r *http.Request, err error, exception string, frames []Frame) envelope.Envelope {
	d.errLogger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("unhandled exception")

	e := status.Fail(status.UnhandledException, nil)
	if d.Debug() {
		e = e.With(status.ExtraException, exception).With(status.ExtraTraceback, frames)
	}
	return envelope.FromError(d.apiVersion, e)
}

func (d *Dispatcher) observe(res *app.Resource, op string, env envelope.Envelope, err error) {
	if d.metrics == nil {
		return
	}
	d.metrics.RequestsTotal.WithLabelValues(res.Name(), op, strconv.Itoa(env.StatusCode)).Inc()
	if status.IsValidation(err) {
		d.metrics.ValidationFailures.WithLabelValues(res.Name()).Inc()
	}
}

// write encodes env before touching the response so an encoding failure
// can still produce a well-formed error document.
func (d *Dispatcher) write(w http.ResponseWriter, r *http.Request, rep Representation, env envelope.Envelope) {
	var buf bytes.Buffer
	if err := rep.Encode(&buf, env); err != nil {
		d.errLogger.Error().
			Err(err).
			Str("format", rep.Format).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("failed to encode response")
		env = envelope.FromError(d.apiVersion, status.Fail(status.UnhandledException, nil))
		rep = JSON
		buf.Reset()
		_ = rep.Encode(&buf, env)
	}

	if info := infoFrom(r.Context()); info != nil {
		info.statusCode = env.StatusCode
	}
	w.Header().Set("Content-Type", rep.ContentType)
	w.WriteHeader(env.HTTPStatus)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		d.errLogger.Error().Err(err).Msg("failed to write response body")
	}
}

// callers captures the stack above the caller, runtime frames excluded.
func callers(skip int) []Frame {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []Frame
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			out = append(out, Frame{File: f.File, Line: f.Line, Function: f.Function})
		}
		if !more {
			break
		}
	}
	return out
}
