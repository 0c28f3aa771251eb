// Package ratelimit backs fiber's limiter with Redis so request counters are
// shared between instances.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "petshop"
	keyPrefix    = "rate_limit"
	opTimeout    = 2 * time.Second
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
	Scan(context.Context, uint64, string, int64) *redis.ScanCmd
}

// Storage implements fiber.Storage on top of a Redis client.
type Storage struct {
	store cmdable
	raw   *redis.Client
}

var _ fiber.Storage = (*Storage)(nil)

// New parses url, dials Redis and verifies connectivity.
func New(ctx context.Context, url string) (*Storage, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Storage{store: raw, raw: raw}, nil
}

func key(k string) string { return keyNamespace + ":" + keyPrefix + ":" + k }

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// Get returns nil without error for missing keys, as fiber expects.
func (s *Storage) Get(k string) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}
	ctx, cancel := opContext()
	defer cancel()
	v, err := s.store.Get(ctx, key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return v, err
}

func (s *Storage) Set(k string, val []byte, exp time.Duration) error {
	if len(k) == 0 || len(val) == 0 {
		return nil
	}
	ctx, cancel := opContext()
	defer cancel()
	return s.store.Set(ctx, key(k), val, exp).Err()
}

func (s *Storage) Delete(k string) error {
	if len(k) == 0 {
		return nil
	}
	ctx, cancel := opContext()
	defer cancel()
	return s.store.Del(ctx, key(k)).Err()
}

// Reset drops every limiter key. Other data in the database is untouched.
func (s *Storage) Reset() error {
	ctx, cancel := opContext()
	defer cancel()
	var cursor uint64
	for {
		keys, next, err := s.store.Scan(ctx, cursor, key("*"), 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.store.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Storage) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
