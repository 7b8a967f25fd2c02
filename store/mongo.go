// store/mongo.go
package store

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBlobs stores each collection blob as a single document keyed by _id
// in the "blobs" collection. ReplaceOne with upsert gives the
// full-collection overwrite semantics the callers expect.
type MongoBlobs struct {
	coll *mongo.Collection

	mu   sync.Mutex
	subs map[string][]func()
}

func NewMongoBlobs(client *mongo.Client, dbName string) *MongoBlobs {
	return &MongoBlobs{
		coll: client.Database(dbName).Collection("blobs"),
		subs: make(map[string][]func()),
	}
}

func (m *MongoBlobs) Get(ctx context.Context, key string, v interface{}) error {
	var doc struct {
		Payload bson.RawValue `bson:"payload"`
	}
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load blob %s: %w", key, err)
	}
	if err := doc.Payload.Unmarshal(v); err != nil {
		return fmt.Errorf("decode blob %s: %w", key, err)
	}
	return nil
}

func (m *MongoBlobs) Put(ctx context.Context, key string, v interface{}) error {
	doc := bson.M{"_id": key, "payload": v}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}
	m.mu.Lock()
	subs := append([]func(){}, m.subs[key]...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
	return nil
}

func (m *MongoBlobs) Subscribe(key string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[key] = append(m.subs[key], fn)
}
