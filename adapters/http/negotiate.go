package http

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/hoops/app"
	"github.com/tidwall/gjson"
)

const (
	jsonMedia = "application/json"
	formMedia = "application/x-www-form-urlencoded"
)

// Negotiator picks the representation of a response.
type Negotiator struct {
	byFormat map[string]Representation
	byMedia  map[string]Representation
	fallback Representation
}

// NewNegotiator creates a negotiator over the built-in representations.
// defaultFormat is used when the request expresses no usable preference;
// empty means json.
func NewNegotiator(defaultFormat string) (*Negotiator, error) {
	n := &Negotiator{
		byFormat: map[string]Representation{},
		byMedia:  map[string]Representation{},
	}
	for _, rep := range []Representation{JSON, XML, TextXML, YAML, CBOR} {
		if _, ok := n.byFormat[rep.Format]; !ok {
			n.byFormat[rep.Format] = rep
		}
		n.byMedia[rep.ContentType] = rep
	}

	if defaultFormat == "" {
		defaultFormat = JSON.Format
	}
	rep, ok := n.byFormat[strings.ToLower(defaultFormat)]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", defaultFormat)
	}
	n.fallback = rep
	return n, nil
}

// Formats lists the accepted output_format values.
func (n *Negotiator) Formats() []string {
	out := make([]string, 0, len(n.byFormat))
	for f := range n.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Default returns the fallback representation.
func (n *Negotiator) Default() Representation {
	return n.fallback
}

// Negotiate picks a representation for r. body is the raw request body,
// inspected only for an output_format override.
//
// Precedence: output_format, then the Accept header in preference order.
// A browser (Mozilla user agent) whose preferred type is HTML gets JSON.
// Anything else gets the default representation.
func (n *Negotiator) Negotiate(r *http.Request, body []byte) Representation {
	if rep, ok := n.byFormat[strings.ToLower(OutputFormat(r, body))]; ok {
		return rep
	}

	browser := strings.Contains(r.UserAgent(), "Mozilla")
	for _, media := range acceptList(r.Header.Get("Accept")) {
		if rep, ok := n.byMedia[media]; ok {
			return rep
		}
		if browser && (media == "text/html" || media == "application/xhtml+xml") {
			return JSON
		}
	}
	return n.fallback
}

// OutputFormat returns the output_format override from the query string,
// a form body or a JSON body, in that order.
func OutputFormat(r *http.Request, body []byte) string {
	if v := r.URL.Query().Get(app.OutputFormatParam); v != "" {
		return v
	}
	if len(body) == 0 {
		return ""
	}
	switch mediaType(r.Header.Get("Content-Type")) {
	case formMedia:
		values, err := url.ParseQuery(string(body))
		if err == nil {
			return values.Get(app.OutputFormatParam)
		}
	case jsonMedia:
		return gjson.GetBytes(body, app.OutputFormatParam).String()
	}
	return ""
}

type acceptEntry struct {
	media string
	q     float64
}

// acceptList returns the media types of an Accept header, most preferred
// first. Entries with q=0 are dropped.
func acceptList(header string) []string {
	if header == "" {
		return nil
	}
	var entries []acceptEntry
	for _, part := range strings.Split(header, ",") {
		media, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				q = f
			}
		}
		if q <= 0 {
			continue
		}
		entries = append(entries, acceptEntry{media: media, q: q})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].q > entries[j].q })

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.media
	}
	return out
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}
