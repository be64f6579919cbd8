package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Provider stores opaque byte payloads under string keys. A ttl of zero
// means the provider's default lifetime.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the payload under key into v. A corrupt payload is deleted
// and reported as a miss.
func GetJSON(ctx context.Context, p Provider, key string, v any) error {
	payload, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		_ = p.Del(ctx, key)
		return fmt.Errorf("%w: corrupt entry %s: %v", ErrCacheMiss, key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, p Provider, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return p.Set(ctx, key, payload, ttl)
}

// NoopProvider never stores anything; every Get misses.
type NoopProvider struct{}

func (NoopProvider) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopProvider) Del(context.Context, string) error { return nil }

func (NoopProvider) Close() error { return nil }
