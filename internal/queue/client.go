package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// Dialer opens a connection to the queue store. It is the only place a
// connection is created, so counting its calls counts connections.
type Dialer func(ctx context.Context) (*redis.Client, error)

// DialURL returns a Dialer for either a redis:// URL or a plain host:port.
// The URL is parsed eagerly so configuration errors surface at startup.
func DialURL(redisURL string) (Dialer, error) {
	var opts *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	return func(ctx context.Context) (*redis.Client, error) {
		o := *opts
		return redis.NewClient(&o), nil
	}, nil
}

// Client owns one connection to the queue store and exposes the list
// primitives the queue services are built on. Items are JSON on the way in;
// reads return the raw stored string so callers decide how to parse it.
//
// Lifecycle: Unconnected until the first successful Connect, then Connected
// until Disconnect. Every operation connects first if needed. A transport
// failure drops the handle, reconnects once and retries the command once.
type Client struct {
	dial   Dialer
	logger *zap.Logger

	mu  sync.Mutex
	rdb *redis.Client
}

func NewClient(dial Dialer, logger *zap.Logger) *Client {
	return &Client{dial: dial, logger: logger}
}

// Connect is a no-op when already connected.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.handle(ctx)
	return err
}

// IsConnected reports whether a store handle is currently held.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rdb != nil
}

// Disconnect releases the connection. Subsequent operations reconnect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	rdb := c.rdb
	c.rdb = nil
	c.mu.Unlock()

	if rdb == nil {
		return nil
	}
	return rdb.Close()
}

// Ping checks liveness of the current connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func(rdb *redis.Client) error {
		return rdb.Ping(ctx).Err()
	})
}

// Push JSON-encodes item and appends it to the tail of the queue.
// It returns the queue length after the append.
func (c *Client) Push(ctx context.Context, queue string, item any) (int64, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return c.PushRaw(ctx, queue, string(data))
}

// PushRaw appends raw verbatim. Used to relocate unparsable entries.
func (c *Client) PushRaw(ctx context.Context, queue, raw string) (int64, error) {
	var n int64
	err := c.do(ctx, "rpush", func(rdb *redis.Client) error {
		var err error
		n, err = rdb.RPush(ctx, queue, raw).Result()
		return err
	})
	return n, err
}

// Pop removes and returns the head element. ok is false when the queue is empty.
func (c *Client) Pop(ctx context.Context, queue string) (string, bool, error) {
	var val string
	err := c.do(ctx, "lpop", func(rdb *redis.Client) error {
		var err error
		val, err = rdb.LPop(ctx, queue).Result()
		return err
	})
	return emptyOnNil(val, err)
}

// Peek returns the head element without removing it.
func (c *Client) Peek(ctx context.Context, queue string) (string, bool, error) {
	return c.PeekAt(ctx, queue, 0)
}

// PeekAt returns the element at index without removing it. Negative indexes
// count from the tail.
func (c *Client) PeekAt(ctx context.Context, queue string, index int64) (string, bool, error) {
	var val string
	err := c.do(ctx, "lindex", func(rdb *redis.Client) error {
		var err error
		val, err = rdb.LIndex(ctx, queue, index).Result()
		return err
	})
	return emptyOnNil(val, err)
}

// Range returns every element of the queue, head first.
func (c *Client) Range(ctx context.Context, queue string) ([]string, error) {
	var vals []string
	err := c.do(ctx, "lrange", func(rdb *redis.Client) error {
		var err error
		vals, err = rdb.LRange(ctx, queue, 0, -1).Result()
		return err
	})
	return vals, err
}

// Length returns the number of elements; a missing queue has length 0.
func (c *Client) Length(ctx context.Context, queue string) (int64, error) {
	var n int64
	err := c.do(ctx, "llen", func(rdb *redis.Client) error {
		var err error
		n, err = rdb.LLen(ctx, queue).Result()
		return err
	})
	return n, err
}

func (c *Client) handle(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rdb != nil {
		return c.rdb, nil
	}

	rdb, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	c.rdb = rdb
	c.logger.Info("queue store connected")
	return rdb, nil
}

// drop forgets rdb if it is still the current handle.
func (c *Client) drop(rdb *redis.Client) {
	c.mu.Lock()
	if c.rdb == rdb {
		c.rdb = nil
	}
	c.mu.Unlock()
	_ = rdb.Close()
}

// do runs op against the current handle. redis.Nil is passed through
// untouched; any other error triggers one reconnect and one retry.
func (c *Client) do(ctx context.Context, cmd string, op func(*redis.Client) error) error {
	rdb, err := c.handle(ctx)
	if err != nil {
		return err
	}

	err = op(rdb)
	if err == nil || errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return wrapStoreErr(cmd, err)
	}

	c.logger.Warn("queue store command failed, reconnecting",
		zap.String("command", cmd), zap.Error(err))
	c.drop(rdb)

	rdb, err = c.handle(ctx)
	if err != nil {
		return err
	}
	return wrapStoreErr(cmd, op(rdb))
}

func wrapStoreErr(cmd string, err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStore, cmd, err)
}

func emptyOnNil(val string, err error) (string, bool, error) {
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
