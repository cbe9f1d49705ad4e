// Package redis provides a Redis-backed nonce store for deployments that
// run several instances behind one load balancer.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/artpar/hoops/ports"
	goredis "github.com/go-redis/redis/v8"
)

// DefaultPrefix namespaces nonce keys.
const DefaultPrefix = "hoops:nonce:"

// NonceStore implements ports.NonceStore with SET NX and a TTL, so expiry
// is left to Redis.
type NonceStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewNonceStore creates a nonce store. An empty prefix means DefaultPrefix.
func NewNonceStore(client goredis.UniversalClient, prefix string) *NonceStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &NonceStore{client: client, prefix: prefix}
}

// Open connects to the server at url, e.g. "redis://localhost:6379/0".
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

var _ ports.NonceStore = (*NonceStore)(nil)

// Claim records nonce for consumerKey unless the key already exists.
func (s *NonceStore) Claim(ctx context.Context, consumerKey, nonce string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := s.client.SetNX(ctx, s.key(consumerKey, nonce), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim nonce: %w", err)
	}
	return ok, nil
}

// HealthCheck pings the server.
func (s *NonceStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// key length-prefixes the consumer key so a ':' in either part cannot make
// two pairs collide.
func (s *NonceStore) key(consumerKey, nonce string) string {
	return s.prefix + strconv.Itoa(len(consumerKey)) + ":" + consumerKey + ":" + nonce
}
