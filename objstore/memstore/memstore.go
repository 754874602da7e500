// Package memstore is an in-memory objstore.Store, used by the core
// packages' round-trip tests (§8 "Round-trip laws") where spinning up a
// filesystem or cloud bucket would be incidental to the property under
// test.
package memstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sacheendra/serverless-sort/objstore"
)

// Store is a concurrency-safe, in-memory objstore.Store.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func (s *Store) ListObjects(_ context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []objstore.ObjectInfo
	for k, v := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, objstore.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	infos, err := s.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	return keys, nil
}

func (s *Store) OpenRead(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, &objstore.NotFoundError{Key: key}
	}
	// Copy so later writes to key can't mutate a reader in flight.
	cp := make([]byte, len(data))
	copy(cp, data)
	return io.NopCloser(bytes.NewReader(cp)), nil
}

func (s *Store) OpenWrite(_ context.Context, key string, _ bool) (io.WriteCloser, error) {
	return &memWriter{store: s, key: key}, nil
}

type memWriter struct {
	store *Store
	key   string
	buf   bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.key] = w.buf.Bytes()
	return nil
}
