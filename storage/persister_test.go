package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type persister interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPersistersRoundTrip(t *testing.T) {
	_, client := newMiniredisClient(t)
	cases := map[string]persister{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "nested")),
		"redis":  NewRedis(client, "test:"),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, ok, err := p.Load(ctx, "gtd-tasks"); err != nil || ok {
				t.Fatalf("expected empty load, ok=%v err=%v", ok, err)
			}

			first := []byte(`[{"id":"1"}]`)
			if err := p.Save(ctx, "gtd-tasks", first); err != nil {
				t.Fatalf("save: %v", err)
			}
			second := []byte(`[{"id":"2"}]`)
			if err := p.Save(ctx, "gtd-tasks", second); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			got, ok, err := p.Load(ctx, "gtd-tasks")
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if !bytes.Equal(got, second) {
				t.Fatalf("unexpected snapshot: %s", got)
			}
		})
	}
}

func TestMemoryCopiesBuffers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	if err := m.Save(ctx, "k", buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	buf[0] = 'z'
	got, _, _ := m.Load(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("saved buffer aliased caller slice: %s", got)
	}
}

func TestFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(dir)
	if err := f.Save(context.Background(), "gtd/tasks", []byte("[]")); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "gtd_tasks.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestRedisUsesPrefixWithoutExpiry(t *testing.T) {
	mr, client := newMiniredisClient(t)
	r := NewRedis(client, "gtd:")
	if err := r.Save(context.Background(), "gtd-tasks", []byte("[]")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("gtd:gtd-tasks") {
		t.Fatalf("expected prefixed key")
	}
	if ttl := mr.TTL("gtd:gtd-tasks"); ttl != 0 {
		t.Fatalf("snapshot should not expire, ttl=%v", ttl)
	}
}

func TestNewRedisClientParsesConnectionStrings(t *testing.T) {
	tests := map[string]struct {
		conn     string
		addr     string
		password string
		db       int
		tls      bool
	}{
		"url":   {conn: "redis://:secret@localhost:6380/2", addr: "localhost:6380", password: "secret", db: 2},
		"azure": {conn: "cache.example.net:6380,password=pw=,ssl=True,db=1", addr: "cache.example.net:6380", password: "pw=", db: 1, tls: true},
		"plain": {conn: "localhost:6379", addr: "localhost:6379"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			client := NewRedisClient(tc.conn)
			t.Cleanup(func() { _ = client.Close() })
			opts := client.Options()
			if opts.Addr != tc.addr {
				t.Fatalf("addr = %q, want %q", opts.Addr, tc.addr)
			}
			if opts.Password != tc.password {
				t.Fatalf("password = %q, want %q", opts.Password, tc.password)
			}
			if opts.DB != tc.db {
				t.Fatalf("db = %d, want %d", opts.DB, tc.db)
			}
			if (opts.TLSConfig != nil) != tc.tls {
				t.Fatalf("tls = %v, want %v", opts.TLSConfig != nil, tc.tls)
			}
		})
	}
}

func TestTableEntityRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat(`{"id":"x","title":"Einkaufen"},`, 3000))
	raw, err := encodeTableEntity("gtd-tasks", payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Contains(raw, []byte(`"Data002"`)) {
		t.Fatalf("expected payload split across several properties")
	}
	got, err := decodeTableEntity(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload changed in round trip")
	}
}

func TestTableEntityRejectsMissingChunk(t *testing.T) {
	if _, err := decodeTableEntity([]byte(`{"Parts":2,"Data000":"e30="}`)); err == nil {
		t.Fatalf("expected error for missing chunk")
	}
	if _, err := decodeTableEntity([]byte(`{"RowKey":"k"}`)); err == nil {
		t.Fatalf("expected error for missing Parts")
	}
}

func TestTableEntityRejectsOversizedSnapshot(t *testing.T) {
	big := make([]byte, tableChunkSize*tableMaxChunks)
	if _, err := encodeTableEntity("k", big); err == nil {
		t.Fatalf("expected size error")
	}
}
