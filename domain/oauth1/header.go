package oauth1

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const headerScheme = "OAuth"

// ParseHeader extracts protocol parameters from an
// "Authorization: OAuth k="v", ..." header value. The realm parameter is
// not part of the signature and is dropped.
func ParseHeader(value string) (url.Values, bool) {
	value = strings.TrimSpace(value)
	if len(value) < len(headerScheme) || !strings.EqualFold(value[:len(headerScheme)], headerScheme) {
		return nil, false
	}
	rest := strings.TrimSpace(value[len(headerScheme):])

	params := url.Values{}
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if strings.EqualFold(k, "realm") {
			continue
		}
		v = strings.Trim(strings.TrimSpace(v), `"`)
		key, err := url.PathUnescape(k)
		if err != nil {
			continue
		}
		val, err := url.PathUnescape(v)
		if err != nil {
			continue
		}
		params.Add(key, val)
	}
	return params, true
}

// FormatHeader renders protocol parameters as an Authorization header value.
func FormatHeader(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if IsProtocolParam(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, Encode(k)+`="`+Encode(params.Get(k))+`"`)
	}
	return headerScheme + " " + strings.Join(parts, ", ")
}

// Client signs outgoing requests.
type Client struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// Sign adds the protocol parameters and signature to params for a request
// to u, returning the new set. Query parameters of u take part in the
// signature.
func (c Client) Sign(method string, u *url.URL, params url.Values, nonce string, now time.Time) url.Values {
	out := url.Values{}
	for k, v := range u.Query() {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range params {
		out[k] = append(out[k], v...)
	}

	out.Set(ParamConsumerKey, c.ConsumerKey)
	if c.Token != "" {
		out.Set(ParamToken, c.Token)
	}
	out.Set(ParamSignatureMethod, MethodHMACSHA1)
	out.Set(ParamTimestamp, strconv.FormatInt(now.Unix(), 10))
	out.Set(ParamNonce, nonce)
	out.Set(ParamVersion, Version)
	out.Del(ParamSignature)

	base := BaseString(method, BaseURL(u), out)
	out.Set(ParamSignature, Sign(base, c.ConsumerSecret, c.TokenSecret))
	return out
}

// SignedURL returns u with the signed parameter set as its query.
func (c Client) SignedURL(method string, u *url.URL, nonce string, now time.Time) *url.URL {
	signed := c.Sign(method, u, nil, nonce, now)
	out := *u
	out.RawQuery = signed.Encode()
	return &out
}
