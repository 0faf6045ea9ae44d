package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient accepts a redis:// URL or the Azure style
// "host:port,password=...,ssl=True" connection string.
func NewRedisClient(conn string) *redis.Client {
	opts, err := redis.ParseURL(conn)
	if err != nil {
		parts := strings.Split(conn, ",")
		opts = &redis.Options{Addr: strings.TrimSpace(parts[0])}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(kv[0])) {
			case "password":
				opts.Password = kv[1]
			case "ssl":
				if on, _ := strconv.ParseBool(kv[1]); on {
					opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
				}
			case "db":
				if n, err := strconv.Atoi(kv[1]); err == nil {
					opts.DB = n
				}
			}
		}
	}
	return redis.NewClient(opts)
}

// Redis stores the snapshot as a plain string value.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis stores keys as prefix+key. prefix may be empty.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}
