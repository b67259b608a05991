// Package redisdriver implements the nsindex Driver on top of go-redis.
package redisdriver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// pushUnique prepends ARGV[1] to KEYS[1] unless the list already holds it.
var pushUnique = redis.NewScript(`
local items = redis.call('LRANGE', KEYS[1], 0, -1)
for _, v in ipairs(items) do
	if v == ARGV[1] then
		return 0
	end
end
redis.call('LPUSH', KEYS[1], ARGV[1])
return 1
`)

// Options describes a connection to dial.
type Options struct {
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Driver runs index commands against a Redis server.
type Driver struct {
	rdb redis.UniversalClient
}

// New wraps an existing client. Close on the returned Driver closes rdb.
func New(rdb redis.UniversalClient) *Driver {
	return &Driver{rdb: rdb}
}

// Dial opens a new client for opts and checks it with PING.
func Dial(ctx context.Context, opts Options) (*Driver, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisdriver: ping %s: %w", opts.Addr(), err)
	}
	return &Driver{rdb: rdb}, nil
}

// Client exposes the underlying connection.
func (d *Driver) Client() redis.UniversalClient {
	return d.rdb
}

func (d *Driver) Set(ctx context.Context, key, value string) error {
	return d.rdb.Set(ctx, key, value, 0).Err()
}

func (d *Driver) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := d.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *Driver) Delete(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, key).Err()
}

func (d *Driver) LPush(ctx context.Context, key, value string) error {
	return d.rdb.LPush(ctx, key, value).Err()
}

// LPushUnique runs the check and the push as one server-side script.
func (d *Driver) LPushUnique(ctx context.Context, key, value string) (bool, error) {
	n, err := pushUnique.Run(ctx, d.rdb, []string{key}, value).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *Driver) LRange(ctx context.Context, key string) ([]string, error) {
	items, err := d.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func (d *Driver) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]interface{}, 0, 2*len(fields))
	for f, v := range fields {
		args = append(args, f, v)
	}
	return d.rdb.HSet(ctx, key, args...).Err()
}

func (d *Driver) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := d.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// Keys issues KEYS pattern. On a single node this is one round-trip; cluster
// clients fan out to every master.
func (d *Driver) Keys(ctx context.Context, pattern string) ([]string, error) {
	if cc, ok := d.rdb.(*redis.ClusterClient); ok {
		return clusterKeys(ctx, cc, pattern)
	}
	return d.rdb.Keys(ctx, pattern).Result()
}

func clusterKeys(ctx context.Context, cc *redis.ClusterClient, pattern string) ([]string, error) {
	var (
		mu  sync.Mutex
		out []string
	)
	err := cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		keys, err := node.Keys(ctx, pattern).Result()
		if err != nil {
			return err
		}
		mu.Lock()
		out = append(out, keys...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Driver) Close() error {
	return d.rdb.Close()
}
