package oauth1

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abcABC123", "abcABC123"},
		{"-._~", "-._~"},
		{"%", "%25"},
		{"+", "%2B"},
		{" ", "%20"},
		{"&=*", "%26%3D%2A"},
		{"é", "%C3%A9"},
	}
	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"HTTP://Example.COM:80/r%20v/X?id=123", "http://example.com/r%20v/X"},
		{"https://www.example.net:8080/?q=1", "https://www.example.net:8080/"},
		{"https://example.com:443", "https://example.com/"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.in)
		if err != nil {
			t.Fatalf("url.Parse(%q) error = %v", tt.in, err)
		}
		if got := BaseURL(u); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Example from RFC 5849 section 3.4.1.
func TestBaseString_RFCExample(t *testing.T) {
	params := url.Values{
		"b5":                 {"=%3D"},
		"a3":                 {"a", "2 q"},
		"c@":                 {""},
		"a2":                 {"r b"},
		ParamConsumerKey:     {"9djdj82h48djs9d2"},
		ParamToken:           {"kkk9d7dh3k39sjv7"},
		ParamSignatureMethod: {"HMAC-SHA1"},
		ParamTimestamp:       {"137131201"},
		ParamNonce:           {"7d8f3e4a"},
		"c2":                 {""},
		ParamSignature:       {"ignored"},
	}

	want := "POST&http%3A%2F%2Fexample.com%2Frequest&a2%3Dr%2520b%26a3%3D2%2520q" +
		"%26a3%3Da%26b5%3D%253D%25253D%26c%2540%3D%26c2%3D%26oauth_consumer_" +
		"key%3D9djdj82h48djs9d2%26oauth_nonce%3D7d8f3e4a%26oauth_signature_m" +
		"ethod%3DHMAC-SHA1%26oauth_timestamp%3D137131201%26oauth_token%3Dkkk" +
		"9d7dh3k39sjv7"

	got := BaseString("post", "http://example.com/request", params)
	if got != want {
		t.Errorf("BaseString =\n%s\nwant\n%s", got, want)
	}
}

func TestSignVerify(t *testing.T) {
	base := BaseString("GET", "http://localhost/languages", url.Values{"a": {"1"}})
	sig := Sign(base, "secret", "")

	if !Verify(base, sig, "secret", "") {
		t.Error("Verify with the right secret = false")
	}
	if Verify(base, sig, "other", "") {
		t.Error("Verify with the wrong secret = true")
	}

	tampered := BaseString("GET", "http://localhost/languages", url.Values{"a": {"2"}})
	if Verify(tampered, sig, "secret", "") {
		t.Error("Verify of a tampered request = true")
	}
}

func TestExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"now", now, false},
		{"just inside", now.Add(-DefaultSkew + time.Second), false},
		{"exactly skew", now.Add(-DefaultSkew), true},
		{"old", now.Add(-time.Hour), true},
		{"far future", now.Add(time.Hour), true},
	}
	for _, tt := range tests {
		if got := Expired(tt.ts, now, DefaultSkew); got != tt.want {
			t.Errorf("%s: Expired = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseHeader(t *testing.T) {
	h := `OAuth realm="Example", oauth_consumer_key="key%20one", oauth_nonce="abc", oauth_signature="a%2Bb%3D"`

	params, ok := ParseHeader(h)
	if !ok {
		t.Fatal("ParseHeader ok = false")
	}
	if params.Get(ParamConsumerKey) != "key one" {
		t.Errorf("consumer key = %q", params.Get(ParamConsumerKey))
	}
	if params.Get(ParamSignature) != "a+b=" {
		t.Errorf("signature = %q", params.Get(ParamSignature))
	}
	if params.Has("realm") {
		t.Error("realm should be dropped")
	}

	if _, ok := ParseHeader("Bearer xyz"); ok {
		t.Error("ParseHeader(Bearer) ok = true")
	}
}

func TestClient_SignRoundTrip(t *testing.T) {
	c := Client{ConsumerKey: "ck", ConsumerSecret: "cs", Token: "tk", TokenSecret: "ts"}
	u, _ := url.Parse("http://localhost:8080/notes?page=2")
	now := time.Unix(1_700_000_000, 0)

	signed := c.Sign("GET", u, nil, "n-1", now)

	if signed.Get("page") != "2" {
		t.Errorf("query params not carried: %v", signed)
	}
	base := BaseString("GET", BaseURL(u), signed)
	if !Verify(base, signed.Get(ParamSignature), "cs", "ts") {
		t.Error("server-side verification of a client signature failed")
	}

	header := FormatHeader(signed)
	if !strings.HasPrefix(header, "OAuth ") || strings.Contains(header, "page=") {
		t.Errorf("FormatHeader = %q", header)
	}
	parsed, _ := ParseHeader(header)
	if parsed.Get(ParamSignature) != signed.Get(ParamSignature) {
		t.Errorf("header round trip lost signature: %q", parsed.Get(ParamSignature))
	}
}
