package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Schema creates the chat history table. SERIAL gives each record its
// monotonically increasing key; concurrent writers only ever append
// independent rows, so no further coordination is needed.
const Schema = `
CREATE TABLE IF NOT EXISTS chat_history (
	id         SERIAL PRIMARY KEY,
	user_id    TEXT NOT NULL,
	prompt     TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_history_user_idx ON chat_history (user_id, id);
`

// Connect opens and pings a Postgres connection.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Postgres implements ExchangeStore on a Postgres table.
type Postgres struct{ db *sql.DB }

// NewPostgres returns a Postgres-backed exchange store.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsureSchema creates the backing table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure chat_history schema: %w", err)
	}
	return nil
}

// Append inserts the exchange and fills in its store-assigned ID.
func (p *Postgres) Append(ctx context.Context, ex *Exchange) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO chat_history (user_id, prompt, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		ex.OwnerID, ex.Prompt, ex.Response,
	).Scan(&ex.ID, &ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's exchanges ordered by id ascending.
func (p *Postgres) ListByOwner(ctx context.Context, ownerID string) ([]*Exchange, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, prompt, response, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []*Exchange
	for rows.Next() {
		ex := &Exchange{}
		if err := rows.Scan(&ex.ID, &ex.OwnerID, &ex.Prompt, &ex.Response, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return out, nil
}
