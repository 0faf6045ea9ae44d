package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
)

const (
	tablePartition = "gtd"
	// A string property holds at most 64 KiB of UTF-16; base64 is ASCII.
	tableChunkSize = 32000
	tableMaxChunks = 250
)

// Table keeps the snapshot in one Azure Tables entity. The payload is base64
// encoded and split across Data000, Data001, ... properties.
type Table struct {
	client *aztables.Client
}

// NewTable connects with a storage connection string and makes sure the table
// exists.
func NewTable(ctx context.Context, connStr, tableName string) (*Table, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	if _, err := svc.CreateTable(ctx, tableName, nil); err != nil && !isStatus(err, http.StatusConflict) {
		return nil, fmt.Errorf("create table %s: %w", tableName, err)
	}
	return &Table{client: svc.NewClient(tableName)}, nil
}

func (t *Table) Load(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := t.client.GetEntity(ctx, tablePartition, key, nil)
	if isStatus(err, http.StatusNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := decodeTableEntity(resp.Value)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (t *Table) Save(ctx context.Context, key string, data []byte) error {
	ent, err := encodeTableEntity(key, data)
	if err != nil {
		return err
	}
	_, err = t.client.UpsertEntity(ctx, ent, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func encodeTableEntity(key string, data []byte) ([]byte, error) {
	enc := base64.StdEncoding.EncodeToString(data)
	chunks := (len(enc) + tableChunkSize - 1) / tableChunkSize
	if chunks > tableMaxChunks {
		return nil, fmt.Errorf("snapshot of %d bytes does not fit in one entity", len(data))
	}
	ent := map[string]any{
		"PartitionKey": tablePartition,
		"RowKey":       key,
		"Parts":        chunks,
	}
	for i := 0; i < chunks; i++ {
		end := (i + 1) * tableChunkSize
		if end > len(enc) {
			end = len(enc)
		}
		ent[chunkName(i)] = enc[i*tableChunkSize : end]
	}
	return sonic.ConfigStd.Marshal(ent)
}

func decodeTableEntity(raw []byte) ([]byte, error) {
	var ent map[string]any
	if err := sonic.ConfigStd.Unmarshal(raw, &ent); err != nil {
		return nil, fmt.Errorf("decode table entity: %w", err)
	}
	parts, ok := ent["Parts"].(float64)
	if !ok {
		return nil, errors.New("table entity has no Parts property")
	}
	var b strings.Builder
	for i := 0; i < int(parts); i++ {
		chunk, ok := ent[chunkName(i)].(string)
		if !ok {
			return nil, fmt.Errorf("table entity is missing %s", chunkName(i))
		}
		b.WriteString(chunk)
	}
	return base64.StdEncoding.DecodeString(b.String())
}

func chunkName(i int) string {
	return fmt.Sprintf("Data%03d", i)
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}
