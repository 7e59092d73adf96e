// Package rediskv keeps kv documents as plain Redis strings.
package rediskv

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/pliu/newsportal/internal/kv"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	cli *redis.Client
}

var _ kv.Store = (*Store)(nil)

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*Store, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, err
	}
	return &Store{cli: c}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *redis.Client) *Store {
	return &Store{cli: c}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	return b, err
}

// Set stores value without expiry; documents live until deleted.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.cli.Set(ctx, key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.cli.Del(ctx, key).Err()
}

func (s *Store) Close() error { return s.cli.Close() }
