package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

func TestNonceStore_Key(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "hoops:nonce:2:ck:n1"},
		{"test:", "test:2:ck:n1"},
	}
	for _, tt := range tests {
		s := NewNonceStore(nil, tt.prefix)
		if got := s.key("ck", "n1"); got != tt.want {
			t.Errorf("key(prefix %q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNonceStore_KeyUnambiguous(t *testing.T) {
	s := NewNonceStore(nil, "")
	if a, b := s.key("a:b", "c"), s.key("a", "b:c"); a == b {
		t.Errorf("key(a:b, c) = key(a, b:c) = %q", a)
	}
}

func TestNonceStore_ClaimUnreachable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewNonceStore(client, "")
	ok, err := s.Claim(context.Background(), "ck", "n1", time.Minute)
	if err == nil {
		t.Fatal("Claim succeeded against an unreachable server")
	}
	if ok {
		t.Error("Claim reported success with an error")
	}
	if s.HealthCheck(context.Background()) == nil {
		t.Error("HealthCheck succeeded against an unreachable server")
	}
}

func TestOpen_BadURL(t *testing.T) {
	if _, err := Open(context.Background(), "not a url"); err == nil {
		t.Error("Open succeeded with an invalid url")
	}
}
