package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// Schema creates the reports table. Apply it with Migrate.
const Schema = `
create table if not exists check_reports (
	id            bigserial primary key,
	created_at    timestamptz not null default now(),
	content_hash  text not null,
	filename      text not null default '',
	doc_type      text not null,
	categories    text not null,
	rules_hash    text not null default '',
	findings      jsonb not null,
	replacements  integer not null default 0,
	duration_ms   bigint not null default 0
);
alter table check_reports add column if not exists rules_hash text not null default '';
create index if not exists check_reports_hash_idx on check_reports (content_hash, created_at desc);
`

// Postgres is a Store backed by a check_reports table.
type Postgres struct{ DB *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

// Open connects through the pgx database/sql driver and pings the server.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, r *Report) error {
	findings, err := json.Marshal(r.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	const q = `
insert into check_reports (content_hash, filename, doc_type, categories, rules_hash, findings, replacements, duration_ms)
values ($1, $2, $3, $4, $5, $6, $7, $8)
returning id, created_at`
	row := p.DB.QueryRowContext(ctx, q, r.ContentHash, r.Filename, r.DocType,
		CategoryKey(r.Categories), r.RulesHash, findings, r.Replacements, r.DurationMs)
	if err := row.Scan(&r.ID, &r.CreatedAt); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

const selectReport = `
select id, created_at, content_hash, filename, doc_type, categories, rules_hash, findings, replacements, duration_ms
from check_reports`

func (p *Postgres) Find(ctx context.Context, q Query) (*Report, error) {
	row := p.DB.QueryRowContext(ctx, selectReport+`
where content_hash = $1 and doc_type = $2 and categories = $3 and rules_hash = $4
order by created_at desc
limit 1`, q.ContentHash, q.DocType, CategoryKey(q.Categories), q.RulesHash)
	r, err := scanReport(row)
	if err != nil {
		return nil, err
	}
	if q.MaxAge > 0 && time.Since(r.CreatedAt) > q.MaxAge {
		return nil, ErrNotFound
	}
	return r, nil
}

func (p *Postgres) Latest(ctx context.Context, contentHash string) (*Report, error) {
	row := p.DB.QueryRowContext(ctx, selectReport+`
where content_hash = $1
order by created_at desc
limit 1`, contentHash)
	return scanReport(row)
}

func scanReport(row *sql.Row) (*Report, error) {
	var (
		r    Report
		cats string
		js   []byte
	)
	err := row.Scan(&r.ID, &r.CreatedAt, &r.ContentHash, &r.Filename, &r.DocType,
		&cats, &r.RulesHash, &js, &r.Replacements, &r.DurationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	if cats != "" {
		r.Categories = strings.Split(cats, ",")
	}
	if err := json.Unmarshal(js, &r.Findings); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return &r, nil
}
