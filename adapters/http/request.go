package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/artpar/hoops/app"
	"github.com/artpar/hoops/domain/oauth1"
	"github.com/artpar/hoops/domain/status"
	"github.com/go-chi/chi/v5"
)

// inbound is the decoded transport input of one request. A decode failure
// is kept in err and reported after negotiation so it renders in the
// client's representation.
type inbound struct {
	raw   []byte
	query map[string]any
	body  map[string]any
	form  url.Values
	err   error
}

func readInbound(w http.ResponseWriter, r *http.Request, maxBytes int64, requireLength bool) inbound {
	in := inbound{query: flatten(r.URL.Query()), body: map[string]any{}}

	if requireLength && carriesBody(r.Method) && r.ContentLength < 0 {
		in.err = status.Fail(status.ContentLengthMissing, nil)
		return in
	}
	if r.Body == nil || r.Body == http.NoBody {
		return in
	}

	reader := r.Body
	if maxBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			in.err = status.Fail(status.RequestEntityTooLarge, nil)
		} else {
			in.err = status.Fail(status.BadRequest, nil).Wrap(err)
		}
		return in
	}
	in.raw = raw
	if len(bytes.TrimSpace(raw)) == 0 {
		return in
	}

	switch mediaType(r.Header.Get("Content-Type")) {
	case jsonMedia:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			in.err = status.Fail(status.InvalidDataFormat, nil).Wrap(err)
			return in
		}
		if doc != nil {
			in.body = doc
		}
	case formMedia:
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			in.err = status.Fail(status.InvalidDataFormat, nil).Wrap(err)
			return in
		}
		in.form = values
		in.body = flatten(values)
	default:
		in.err = status.Fail(status.InvalidContentHeader, nil)
	}
	return in
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// flatten turns single-valued parameters into strings and repeated ones
// into lists.
func flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			out[k] = v[0]
		default:
			list := make([]any, len(v))
			for i, s := range v {
				list[i] = s
			}
			out[k] = list
		}
	}
	return out
}

// signedRequest collects the signature inputs: query parameters, a form
// body and the Authorization header.
func signedRequest(r *http.Request, in inbound) app.SignedRequest {
	params := url.Values{}
	for k, v := range r.URL.Query() {
		params[k] = append(params[k], v...)
	}
	for k, v := range in.form {
		params[k] = append(params[k], v...)
	}
	if header, ok := oauth1.ParseHeader(r.Header.Get("Authorization")); ok {
		for k, v := range header {
			params[k] = append(params[k], v...)
		}
	}
	return app.SignedRequest{Method: r.Method, URL: requestURL(r), Params: params}
}

// requestURL rebuilds the absolute URL the client addressed.
func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawPath: r.URL.RawPath}
}

func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	out := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
