// Package store persists conversations and profiles as partitioned JSON
// documents in Postgres or SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

// Result is one page of documents and the total number matching.
type Result struct {
	Items []json.RawMessage
	Total int
}

// HasMore reports whether documents remain past this page.
func (r Result) HasMore(p Page) bool {
	return p.Offset+len(r.Items) < r.Total
}

// Store is the typed layer over Documents used by the service.
type Store struct {
	docs Documents
}

func New(docs Documents) *Store {
	return &Store{docs: docs}
}

func (s *Store) Close() {
	s.docs.Close()
}

// SaveConversation stores a raw webhook data object under its conversation
// id, overwriting any earlier copy.
func (s *Store) SaveConversation(ctx context.Context, conversationID string, data json.RawMessage) error {
	doc, err := withID(data, conversationID)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", conversationID, err)
	}
	return s.docs.Upsert(ctx, Conversations, conversationID, conversationID, doc)
}

func (s *Store) GetConversation(ctx context.Context, conversationID string) (json.RawMessage, error) {
	return s.docs.Read(ctx, Conversations, conversationID, conversationID)
}

func (s *Store) FindConversations(ctx context.Context, filters []Filter, sort *Sort, page Page) (Result, error) {
	return s.find(ctx, Conversations, filters, sort, page)
}

// SaveProfile replaces the stored profile for p.UserID.
func (s *Store) SaveProfile(ctx context.Context, p *profile.FinancialProfile) error {
	if p.UserID == "" {
		return errors.New("save profile: empty user_id")
	}
	p.ID = p.UserID
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.UserID, err)
	}
	return s.docs.Upsert(ctx, Profiles, p.UserID, p.UserID, doc)
}

// GetProfile returns the stored profile document as written.
func (s *Store) GetProfile(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.docs.Read(ctx, Profiles, userID, userID)
}

func (s *Store) FindProfiles(ctx context.Context, filters []Filter, sort *Sort, page Page) (Result, error) {
	return s.find(ctx, Profiles, filters, sort, page)
}

func (s *Store) find(ctx context.Context, c Container, filters []Filter, sort *Sort, page Page) (Result, error) {
	items, err := s.docs.Query(ctx, c, Query{
		Filters: filters,
		Sort:    sort,
		Offset:  page.Offset,
		Limit:   page.Limit,
	})
	if err != nil {
		return Result{}, err
	}
	total, err := s.docs.Count(ctx, c, filters)
	if err != nil {
		return Result{}, err
	}
	return Result{Items: items, Total: total}, nil
}

func withID(data json.RawMessage, id string) (json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	raw, _ := json.Marshal(id)
	doc["id"] = raw
	return json.Marshal(doc)
}
