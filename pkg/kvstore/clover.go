package kvstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ostafen/clover"
)

const (
	cloverKeyField   = "key"
	cloverValueField = "value"
)

// CloverStore keeps each key as a {key, value} document in a clover collection.
type CloverStore struct {
	mu         sync.Mutex
	db         *clover.DB
	collection string
}

// NewCloverStore opens the clover database in dir and ensures the collection exists.
func NewCloverStore(dir, collection string) (*CloverStore, error) {
	if collection == "" {
		collection = DefaultTable
	}

	db, err := clover.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open clover database: %w", err)
	}

	exists, err := db.HasCollection(collection)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		if err := db.CreateCollection(collection); err != nil {
			db.Close()
			return nil, fmt.Errorf("create collection %s: %w", collection, err)
		}
	}

	return &CloverStore{
		db:         db,
		collection: collection,
	}, nil
}

func (c *CloverStore) byKey(key string) *clover.Query {
	return c.db.Query(c.collection).Where(clover.Field(cloverKeyField).Eq(key))
}

// GetValue implements Store.
func (c *CloverStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.byKey(key).Limit(1).FindAll()
	if err != nil {
		return "", false, fmt.Errorf("clover find: %w", err)
	}
	if len(docs) == 0 {
		return "", false, nil
	}

	value, ok := docs[0].Get(cloverValueField).(string)
	if !ok {
		return "", false, fmt.Errorf("clover find: value of %q is not a string", key)
	}
	return value, true, nil
}

// SetValue implements Store. The lock makes the find-then-insert upsert
// atomic within this process.
func (c *CloverStore) SetValue(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	query := c.byKey(key)
	count, err := query.Count()
	if err != nil {
		return fmt.Errorf("clover count: %w", err)
	}

	if count > 0 {
		if err := query.Update(map[string]interface{}{cloverValueField: value}); err != nil {
			return fmt.Errorf("clover update: %w", err)
		}
		return nil
	}

	doc := clover.NewDocument()
	doc.Set(cloverKeyField, key)
	doc.Set(cloverValueField, value)
	if err := c.db.Insert(c.collection, doc); err != nil {
		return fmt.Errorf("clover insert: %w", err)
	}
	return nil
}

// Close closes the clover database.
func (c *CloverStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
