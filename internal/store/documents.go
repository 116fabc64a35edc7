package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Container is a named collection of JSON documents partitioned by key.
type Container string

const (
	// Conversations holds raw webhook payloads, partitioned by conversation id.
	Conversations Container = "conversations"
	// Profiles holds financial profiles, partitioned by user id.
	Profiles Container = "profiles"
)

// Containers lists every container EnsureContainers creates.
var Containers = []Container{Conversations, Profiles}

var ErrNotFound = errors.New("document not found")

// Documents is a partitioned JSON document store.
type Documents interface {
	// EnsureContainers creates any missing containers. It is safe to call repeatedly.
	EnsureContainers(ctx context.Context) error
	// Upsert inserts or fully replaces the document at (partitionKey, id).
	Upsert(ctx context.Context, c Container, id, partitionKey string, doc json.RawMessage) error
	// Read returns the document or ErrNotFound.
	Read(ctx context.Context, c Container, id, partitionKey string) (json.RawMessage, error)
	Query(ctx context.Context, c Container, q Query) ([]json.RawMessage, error)
	Count(ctx context.Context, c Container, filters []Filter) (int, error)
	Close()
}
