package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheKey struct {
	container    Container
	partitionKey string
	id           string
}

// Cached serves point reads from a bounded, expiring in-process cache.
// Writes through this instance refresh the cache; writes from other
// processes become visible once the entry expires.
type Cached struct {
	Documents
	lru *expirable.LRU[cacheKey, json.RawMessage]
}

func NewCached(docs Documents, size int, ttl time.Duration) *Cached {
	return &Cached{
		Documents: docs,
		lru:       expirable.NewLRU[cacheKey, json.RawMessage](size, nil, ttl),
	}
}

func (c *Cached) Upsert(ctx context.Context, container Container, id, partitionKey string, doc json.RawMessage) error {
	key := cacheKey{container, partitionKey, id}
	if err := c.Documents.Upsert(ctx, container, id, partitionKey, doc); err != nil {
		c.lru.Remove(key)
		return err
	}
	c.lru.Add(key, clone(doc))
	return nil
}

func (c *Cached) Read(ctx context.Context, container Container, id, partitionKey string) (json.RawMessage, error) {
	key := cacheKey{container, partitionKey, id}
	if doc, ok := c.lru.Get(key); ok {
		return clone(doc), nil
	}
	doc, err := c.Documents.Read(ctx, container, id, partitionKey)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, clone(doc))
	return doc, nil
}

func clone(doc json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), doc...)
}
