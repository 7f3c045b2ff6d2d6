// Package rds wraps go-redis for the two things popreel uses redis for:
// short lived JSON caches and change notifications between processes
package rds

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key and channel
	Prefix string
}

// Client is a prefixed redis client
type Client struct {
	rdb    redis.UniversalClient
	prefix string
}

// ErrMiss is returned by GetJSON when the key is absent
var ErrMiss = errors.New("rds: cache miss")

// Open dials redis and pings it once
func Open(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Client{rdb: rdb, prefix: cfg.Prefix}, nil
}

// New wraps an existing client; tests hand in a client pointed at a container
func New(rdb redis.UniversalClient, prefix string) *Client {
	return &Client{rdb: rdb, prefix: prefix}
}

func (c *Client) key(k string) string { return c.prefix + k }

// Ping checks the server is reachable
func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

// Close closes the client
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// GetJSON decodes the value at key into dst; ErrMiss when absent
func (c *Client) GetJSON(ctx context.Context, key string, dst any) error {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// SetJSON stores v at key; ttl <= 0 means no expiry
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}

// Del removes keys; missing keys are not an error
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Publish sends msg on channel
func (c *Client) Publish(ctx context.Context, channel, msg string) error {
	return c.rdb.Publish(ctx, c.key(channel), msg).Err()
}

// Subscribe forwards messages on channel until stop is called or ctx ends
// Delivery never blocks the redis reader: when out is full the message is dropped,
// receivers treat any message as a nudge to re-read
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan string, func()) {
	ps := c.rdb.Subscribe(ctx, c.key(channel))
	out := make(chan string, 1)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				default:
				}
			}
		}
	}()

	stop := func() {
		cancel()
		_ = ps.Close()
		<-done
	}
	return out, stop
}
