package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores each container as a table of JSONB documents.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool, now: time.Now}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) EnsureContainers(ctx context.Context) error {
	for _, c := range Containers {
		_, err := s.pool.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS `+string(c)+` (
				id            TEXT   NOT NULL,
				partition_key TEXT   NOT NULL,
				doc           JSONB  NOT NULL,
				modified_at   BIGINT NOT NULL,
				PRIMARY KEY (partition_key, id)
			)`)
		if err != nil {
			return fmt.Errorf("create container %s: %w", c, err)
		}
	}
	return nil
}

func (s *Postgres) Upsert(ctx context.Context, c Container, id, partitionKey string, doc json.RawMessage) error {
	if err := knownContainer(c); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+string(c)+` (id, partition_key, doc, modified_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (partition_key, id) DO UPDATE
		SET doc = excluded.doc, modified_at = excluded.modified_at`,
		id, partitionKey, []byte(doc), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *Postgres) Read(ctx context.Context, c Container, id, partitionKey string) (json.RawMessage, error) {
	if err := knownContainer(c); err != nil {
		return nil, err
	}
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM `+string(c)+` WHERE partition_key = $1 AND id = $2`,
		partitionKey, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", c, id, err)
	}
	return doc, nil
}

func (s *Postgres) Query(ctx context.Context, c Container, q Query) ([]json.RawMessage, error) {
	if err := knownContainer(c); err != nil {
		return nil, err
	}
	sql, args, err := selectSQL(pgDialect{}, c, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c, err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Postgres) Count(ctx context.Context, c Container, filters []Filter) (int, error) {
	if err := knownContainer(c); err != nil {
		return 0, err
	}
	sql, args, err := countSQL(pgDialect{}, c, filters)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}

type pgDialect struct{}

func (pgDialect) placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (pgDialect) text(path []string) string {
	return "doc #>> '{" + strings.Join(path, ",") + "}'"
}

func (pgDialect) number(path []string) string {
	p := "'{" + strings.Join(path, ",") + "}'"
	return "(CASE WHEN jsonb_typeof(doc #> " + p + ") = 'number' THEN (doc #>> " + p + ")::double precision END)"
}

func (pgDialect) contains(expr, arg string) string {
	return "strpos(lower(" + expr + "), lower(" + arg + "::text)) > 0"
}

func (pgDialect) limit(limit, offset int) string {
	var out string
	if limit > 0 {
		out += " LIMIT " + strconv.Itoa(limit)
	}
	if offset > 0 {
		out += " OFFSET " + strconv.Itoa(offset)
	}
	return out
}
