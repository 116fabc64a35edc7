package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := NewSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(db.Close)

	var tick int64
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	if err := db.EnsureContainers(ctx); err != nil {
		t.Fatalf("ensure containers: %v", err)
	}
	if err := db.EnsureContainers(ctx); err != nil {
		t.Fatalf("ensure containers twice: %v", err)
	}
	return db
}

func ids(t *testing.T, docs []json.RawMessage) []string {
	t.Helper()
	out := make([]string, len(docs))
	for i, d := range docs {
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(d, &v); err != nil {
			t.Fatalf("decode doc: %v", err)
		}
		out[i] = v.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func seedProfiles(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	seed := []*profile.FinancialProfile{
		{UserID: "u1", Status: profile.StatusPartial, PersonalInfo: &profile.PersonalInfo{FirstName: ptr("Alice"), LastName: ptr("Smith")},
			Employment:        &profile.EmploymentDetails{EmploymentStatus: ptr(profile.EmploymentEmployed), TotalAnnualIncome: ptr(52000.0)},
			FinancialPosition: &profile.FinancialPosition{NetWorth: ptr(120000.0)}},
		{UserID: "u2", Status: profile.StatusIncomplete, PersonalInfo: &profile.PersonalInfo{FirstName: ptr("Bob"), LastName: ptr("Alison")}},
		{UserID: "u3", Status: profile.StatusPartial, PersonalInfo: &profile.PersonalInfo{FirstName: ptr("Carol"), LastName: ptr("Jones")},
			Employment:        &profile.EmploymentDetails{EmploymentStatus: ptr(profile.EmploymentRetired), TotalAnnualIncome: ptr(18000.0)},
			FinancialPosition: &profile.FinancialPosition{NetWorth: ptr(650000.0)},
			RiskProfile:       &profile.RiskProfile{RiskAttitude: ptr(profile.RiskLow)}},
	}
	for _, p := range seed {
		if err := s.SaveProfile(ctx, p); err != nil {
			t.Fatalf("save profile %s: %v", p.UserID, err)
		}
	}
}

func TestSQLite_UpsertAndRead(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	if _, err := db.Read(ctx, Profiles, "missing", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := db.Upsert(ctx, Profiles, "u1", "u1", json.RawMessage(`{"id":"u1","v":1}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.Upsert(ctx, Profiles, "u1", "u1", json.RawMessage(`{"id":"u1","v":2}`)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	doc, err := db.Read(ctx, Profiles, "u1", "u1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(doc) != `{"id":"u1","v":2}` {
		t.Errorf("expected replaced document, got %s", doc)
	}

	n, err := db.Count(ctx, Profiles, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}

	if _, err := db.Read(ctx, Profiles, "u1", "other-partition"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound across partitions, got %v", err)
	}
}

func TestSQLite_RejectsUnknownContainerAndBadJSON(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, Container("users; DROP TABLE profiles"), "a", "a", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for unknown container")
	}
	if err := db.Upsert(ctx, Profiles, "a", "a", json.RawMessage(`{nope`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestStore_FindProfiles(t *testing.T) {
	s := New(newTestSQLite(t))
	seedProfiles(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters []Filter
		sort    *Sort
		want    []string
	}{
		{"all by id", nil, nil, []string{"u1", "u2", "u3"}},
		{"status eq", []Filter{Eq("status", "partial")}, nil, []string{"u1", "u3"}},
		{"name contains either field", []Filter{AnyOf(
			Contains("personal_info.first_name", "ALI"),
			Contains("personal_info.last_name", "ALI"),
		)}, nil, []string{"u1", "u2"}},
		{"employment", []Filter{Eq("employment.employment_status", "retired")}, nil, []string{"u3"}},
		{"net worth range desc", []Filter{Gte("financial_position.net_worth", 100000)},
			&Sort{Path: "financial_position.net_worth", Numeric: true, Desc: true}, []string{"u3", "u1"}},
		{"income upper bound", []Filter{Lte("employment.total_annual_income", 20000)}, nil, []string{"u3"}},
		{"missing field never matches", []Filter{Eq("risk_profile.risk_attitude", "high")}, nil, []string{}},
		{"numeric sort puts missing last", nil, &Sort{Path: "financial_position.net_worth", Numeric: true, Desc: true}, []string{"u3", "u1", "u2"}},
		{"newest first", nil, Newest, []string{"u3", "u2", "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.FindProfiles(ctx, tt.filters, tt.sort, Page{Limit: 50})
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			got := ids(t, res.Items)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if res.Total != len(tt.want) {
				t.Errorf("expected total %d, got %d", len(tt.want), res.Total)
			}
		})
	}
}

func TestStore_Paging(t *testing.T) {
	s := New(newTestSQLite(t))
	seedProfiles(t, s)
	ctx := context.Background()

	page := Page{Limit: 2, Offset: 1}
	res, err := s.FindProfiles(ctx, nil, nil, page)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := ids(t, res.Items); strings.Join(got, ",") != "u2,u3" {
		t.Errorf("unexpected page %v", got)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	if res.HasMore(page) {
		t.Error("expected no more results")
	}

	page = Page{Limit: 1}
	res, _ = s.FindProfiles(ctx, nil, nil, page)
	if !res.HasMore(page) {
		t.Error("expected more results")
	}

	res, err = s.FindProfiles(ctx, nil, nil, Page{Offset: 2})
	if err != nil {
		t.Fatalf("offset without limit: %v", err)
	}
	if len(res.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(res.Items))
	}
}

func TestStore_InvalidPath(t *testing.T) {
	s := New(newTestSQLite(t))
	_, err := s.FindProfiles(context.Background(), []Filter{Eq("status') OR 1=1 --", "x")}, nil, Page{})
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestStore_Conversations(t *testing.T) {
	s := New(newTestSQLite(t))
	ctx := context.Background()

	convs := map[string]string{
		"c1": `{"conversation_id":"c1","agent_id":"a1","status":"done","user_id":"u1","metadata":{"start_time_unix_secs":1700000000}}`,
		"c2": `{"conversation_id":"c2","agent_id":"a2","status":"failed","user_id":"u1","metadata":{"start_time_unix_secs":1700000500}}`,
		"c3": `{"conversation_id":"c3","agent_id":"a1","status":"done","metadata":{"start_time_unix_secs":1700009999}}`,
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if err := s.SaveConversation(ctx, id, json.RawMessage(convs[id])); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	doc, err := s.GetConversation(ctx, "c2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got map[string]any
	json.Unmarshal(doc, &got)
	if got["id"] != "c2" || got["agent_id"] != "a2" {
		t.Errorf("unexpected document %s", doc)
	}

	res, err := s.FindConversations(ctx, []Filter{Eq("user_id", "u1")}, Newest, Page{Limit: 10})
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if g := ids(t, res.Items); strings.Join(g, ",") != "c2,c1" {
		t.Errorf("expected newest first c2,c1, got %v", g)
	}

	res, err = s.FindConversations(ctx, []Filter{
		Gte("metadata.start_time_unix_secs", 1700000000),
		Lte("metadata.start_time_unix_secs", 1700001000),
	}, &Sort{Path: "metadata.start_time_unix_secs", Numeric: true, Desc: true}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("find by date: %v", err)
	}
	if g := ids(t, res.Items); strings.Join(g, ",") != "c2,c1" {
		t.Errorf("expected c2,c1, got %v", g)
	}

	if err := s.SaveConversation(ctx, "bad", json.RawMessage(`[1,2]`)); err == nil {
		t.Error("expected error for non-object conversation")
	}
}

func TestStore_SaveProfileRequiresUserID(t *testing.T) {
	s := New(newTestSQLite(t))
	if err := s.SaveProfile(context.Background(), &profile.FinancialProfile{}); err == nil {
		t.Fatal("expected error for empty user_id")
	}
}

type countingDocs struct {
	Documents
	reads int
}

func (c *countingDocs) Read(ctx context.Context, container Container, id, pk string) (json.RawMessage, error) {
	c.reads++
	return c.Documents.Read(ctx, container, id, pk)
}

func TestCached(t *testing.T) {
	inner := &countingDocs{Documents: newTestSQLite(t)}
	cached := NewCached(inner, 16, time.Minute)
	ctx := context.Background()

	if _, err := cached.Read(ctx, Profiles, "u1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := cached.Upsert(ctx, Profiles, "u1", "u1", json.RawMessage(`{"v":1}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	before := inner.reads
	doc, err := cached.Read(ctx, Profiles, "u1", "u1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(doc) != `{"v":1}` {
		t.Errorf("unexpected doc %s", doc)
	}
	if inner.reads != before {
		t.Error("expected read served from cache after upsert")
	}

	if err := cached.Upsert(ctx, Profiles, "u1", "u1", json.RawMessage(`{"v":2}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	doc, _ = cached.Read(ctx, Profiles, "u1", "u1")
	if string(doc) != `{"v":2}` {
		t.Errorf("expected refreshed doc, got %s", doc)
	}

	doc[2] = 'X'
	again, _ := cached.Read(ctx, Profiles, "u1", "u1")
	if string(again) != `{"v":2}` {
		t.Errorf("cached entry was mutated by caller: %s", again)
	}
}

func TestCached_Expiry(t *testing.T) {
	inner := &countingDocs{Documents: newTestSQLite(t)}
	cached := NewCached(inner, 16, 20*time.Millisecond)
	ctx := context.Background()

	if err := inner.Upsert(ctx, Profiles, "u1", "u1", json.RawMessage(`{"v":1}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	cached.Read(ctx, Profiles, "u1", "u1")
	cached.Read(ctx, Profiles, "u1", "u1")
	if inner.reads != 1 {
		t.Fatalf("expected 1 backend read, got %d", inner.reads)
	}

	time.Sleep(60 * time.Millisecond)
	cached.Read(ctx, Profiles, "u1", "u1")
	if inner.reads != 2 {
		t.Errorf("expected expired entry to be re-read, got %d reads", inner.reads)
	}
}

func TestRender_Postgres(t *testing.T) {
	sql, args, err := selectSQL(pgDialect{}, Profiles, Query{
		Filters: []Filter{
			Eq("status", "partial"),
			AnyOf(Contains("personal_info.first_name", "al"), Gte("financial_position.net_worth", 10)),
		},
		Sort:   &Sort{Path: "updated_at", Desc: true},
		Offset: 5,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "SELECT doc FROM profiles WHERE doc #>> '{status}' = $1 AND " +
		"(strpos(lower(doc #>> '{personal_info,first_name}'), lower($2::text)) > 0 OR " +
		"(CASE WHEN jsonb_typeof(doc #> '{financial_position,net_worth}') = 'number' THEN (doc #>> '{financial_position,net_worth}')::double precision END) >= $3)" +
		" ORDER BY doc #>> '{updated_at}' DESC NULLS LAST, id LIMIT 10 OFFSET 5"
	if sql != want {
		t.Errorf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 3 || args[0] != "partial" || args[1] != "al" || args[2] != 10.0 {
		t.Errorf("unexpected args %v", args)
	}
}

func TestRender_Errors(t *testing.T) {
	if _, _, err := selectSQL(sqliteDialect{}, Profiles, Query{Filters: []Filter{{Path: "a", Op: "like", Value: "x"}}}); err == nil {
		t.Error("expected error for unknown op")
	}
	if _, _, err := selectSQL(sqliteDialect{}, Profiles, Query{Filters: []Filter{{Path: "a", Op: OpGte, Value: "ten"}}}); err == nil {
		t.Error("expected error for non-numeric range value")
	}
	if _, _, err := countSQL(sqliteDialect{}, Profiles, []Filter{Eq("a..b", "x")}); err == nil {
		t.Error("expected error for empty path segment")
	}
}
