package board

import (
	"context"
	"errors"
	"sync"
)

type fakePersister struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	loadErr error
	saveErr error
}

func newFakePersister() *fakePersister {
	return &fakePersister{data: map[string][]byte{}}
}

func (f *fakePersister) Load(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	d, ok := f.data[key]
	return d, ok, nil
}

func (f *fakePersister) Save(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakePersister) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakePersister) failSaves(err error) {
	f.mu.Lock()
	f.saveErr = err
	f.mu.Unlock()
}

var errDiskFull = errors.New("disk full")
