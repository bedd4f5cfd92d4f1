package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id             TEXT PRIMARY KEY,
    schema_version INT NOT NULL,
    doc            JSONB NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// EnsureSchema creates the sessions table if it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, sessionsSchema)
	return err
}

func (p *Postgres) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	doc, err := Encode(snap)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions (id, schema_version, doc, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (id) DO UPDATE
SET schema_version = EXCLUDED.schema_version, doc = EXCLUDED.doc, updated_at = now()`,
		sessionID, SchemaVersion, string(doc))
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", sessionID, err)
	}
	return tx.Commit()
}

func (p *Postgres) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM sessions WHERE id=$1`, sessionID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return Decode(doc)
}

func (p *Postgres) Clear(ctx context.Context, sessionID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, sessionID)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }
