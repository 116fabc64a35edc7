package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores each container as a table of JSON text documents. It backs
// local development and tests.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) the database at path; ":memory:" is allowed.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() {
	s.db.Close()
}

func (s *SQLite) EnsureContainers(ctx context.Context) error {
	for _, c := range Containers {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS `+string(c)+` (
				id            TEXT    NOT NULL,
				partition_key TEXT    NOT NULL,
				doc           TEXT    NOT NULL,
				modified_at   INTEGER NOT NULL,
				PRIMARY KEY (partition_key, id)
			)`)
		if err != nil {
			return fmt.Errorf("create container %s: %w", c, err)
		}
	}
	return nil
}

func (s *SQLite) Upsert(ctx context.Context, c Container, id, partitionKey string, doc json.RawMessage) error {
	if err := knownContainer(c); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return fmt.Errorf("upsert %s/%s: document is not valid JSON", c, id)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+string(c)+` (id, partition_key, doc, modified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (partition_key, id) DO UPDATE
		SET doc = excluded.doc, modified_at = excluded.modified_at`,
		id, partitionKey, string(doc), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *SQLite) Read(ctx context.Context, c Container, id, partitionKey string) (json.RawMessage, error) {
	if err := knownContainer(c); err != nil {
		return nil, err
	}
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM `+string(c)+` WHERE partition_key = ? AND id = ?`,
		partitionKey, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", c, id, err)
	}
	return json.RawMessage(doc), nil
}

func (s *SQLite) Query(ctx context.Context, c Container, q Query) ([]json.RawMessage, error) {
	if err := knownContainer(c); err != nil {
		return nil, err
	}
	query, args, err := selectSQL(sqliteDialect{}, c, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c, err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		docs = append(docs, json.RawMessage(doc))
	}
	return docs, rows.Err()
}

func (s *SQLite) Count(ctx context.Context, c Container, filters []Filter) (int, error) {
	if err := knownContainer(c); err != nil {
		return 0, err
	}
	query, args, err := countSQL(sqliteDialect{}, c, filters)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}

type sqliteDialect struct{}

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) text(path []string) string {
	return "json_extract(doc, '$." + strings.Join(path, ".") + "')"
}

func (sqliteDialect) number(path []string) string {
	p := "'$." + strings.Join(path, ".") + "'"
	return "(CASE WHEN json_type(doc, " + p + ") IN ('integer', 'real') THEN json_extract(doc, " + p + ") END)"
}

func (sqliteDialect) contains(expr, arg string) string {
	return "instr(lower(" + expr + "), lower(" + arg + ")) > 0"
}

func (sqliteDialect) limit(limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return ""
	}
	if limit <= 0 {
		limit = -1
	}
	return " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
}
