// Package oauth1 provides the signature primitives of OAuth 1.0a signed
// requests (RFC 5849): parameter collection, the signature base string and
// HMAC-SHA1 signing.
// This package has NO dependencies on I/O.
package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Protocol parameter names.
const (
	ParamConsumerKey     = "oauth_consumer_key"
	ParamToken           = "oauth_token"
	ParamSignature       = "oauth_signature"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamNonce           = "oauth_nonce"
	ParamVersion         = "oauth_version"
	ParamBodyHash        = "oauth_body_hash"
)

// Prefix is shared by every protocol parameter.
const Prefix = "oauth_"

// MethodHMACSHA1 is the only supported signature method.
const MethodHMACSHA1 = "HMAC-SHA1"

// Version is the protocol version sent by Client.
const Version = "1.0"

// DefaultSkew is how old a timestamp may be before it is rejected.
const DefaultSkew = 15 * time.Minute

// Required lists the parameters a signed request must carry, in the order
// they are checked.
var Required = []string{ParamSignature, ParamSignatureMethod, ParamTimestamp, ParamNonce}

// IsProtocolParam reports whether name is an oauth_* parameter.
func IsProtocolParam(name string) bool {
	return strings.HasPrefix(name, Prefix)
}

// Encode percent-encodes s per RFC 3986 section 2.1, leaving only
// unreserved characters as is.
func Encode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte("0123456789ABCDEF"[c>>4])
		b.WriteByte("0123456789ABCDEF"[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// BaseURL returns the base string URI: lowercase scheme and host, default
// port dropped, no query or fragment.
func BaseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// NormalizeParams encodes every parameter except oauth_signature, sorts by
// encoded name then encoded value, and joins them as name=value pairs.
func NormalizeParams(params url.Values) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(params))
	for k, values := range params {
		if k == ParamSignature {
			continue
		}
		ek := Encode(k)
		for _, v := range values {
			pairs = append(pairs, pair{ek, Encode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return strings.Join(parts, "&")
}

// BaseString builds the signature base string.
// This is a PURE function.
func BaseString(method, baseURL string, params url.Values) string {
	return strings.ToUpper(method) + "&" + Encode(baseURL) + "&" + Encode(NormalizeParams(params))
}

// Sign returns the base64 HMAC-SHA1 signature of a base string.
func Sign(baseString, consumerSecret, tokenSecret string) string {
	key := Encode(consumerSecret) + "&" + Encode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify compares signature with the expected one in constant time.
func Verify(baseString, signature, consumerSecret, tokenSecret string) bool {
	expected := Sign(baseString, consumerSecret, tokenSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseTimestamp parses an oauth_timestamp (seconds since the epoch).
func ParseTimestamp(s string) (time.Time, bool) {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// Expired reports whether ts lies skew or more away from now. Timestamps
// too far in the future are treated the same way.
func Expired(ts, now time.Time, skew time.Duration) bool {
	d := now.Sub(ts)
	if d < 0 {
		d = -d
	}
	return d >= skew
}
