package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexalex89/task-management/board"
	"github.com/alexalex89/task-management/storage"
)

const (
	storeFile   = "file"
	storeRedis  = "redis"
	storeTable  = "table"
	storeMemory = "memory"
)

func openPersister(ctx context.Context, s Settings) (board.Persister, error) {
	switch s.Store {
	case storeFile, "":
		return storage.NewFile(s.Path), nil
	case storeMemory:
		return storage.NewMemory(), nil
	case storeRedis:
		if s.RedisURL == "" {
			return nil, errors.New("redis store needs --redis-url or GTD_REDIS_URL")
		}
		client := storage.NewRedisClient(s.RedisURL)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		closers = append(closers, client.Close)
		return storage.NewRedis(client, ""), nil
	case storeTable:
		if s.TableConn == "" {
			return nil, errors.New("table store needs table.connection_string or GTD_TABLE_CONNECTION_STRING")
		}
		t, err := storage.NewTable(ctx, s.TableConn, s.TableName)
		if err != nil {
			return nil, fmt.Errorf("opening table %s: %w", s.TableName, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown store %q", s.Store)
	}
}
