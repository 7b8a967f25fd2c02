// store/memory.go
package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryBlobs keeps blobs in process memory. Used by tests and as a
// fallback when no database is configured. Values round-trip through BSON
// so encoding behaviour matches MongoBlobs.
type MemoryBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
	subs map[string][]func()
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{
		data: make(map[string][]byte),
		subs: make(map[string][]func()),
	}
}

func (m *MemoryBlobs) Get(ctx context.Context, key string, v interface{}) error {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	var doc struct {
		Payload bson.RawValue `bson:"payload"`
	}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return doc.Payload.Unmarshal(v)
}

func (m *MemoryBlobs) Put(ctx context.Context, key string, v interface{}) error {
	raw, err := bson.Marshal(bson.M{"payload": v})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	subs := append([]func(){}, m.subs[key]...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
	return nil
}

func (m *MemoryBlobs) Subscribe(key string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[key] = append(m.subs[key], fn)
}
