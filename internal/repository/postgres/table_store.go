// internal/repository/postgres/table_store.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"kunden-service/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS table_headers (
		table_name TEXT PRIMARY KEY,
		columns    TEXT[] NOT NULL
	);
	CREATE TABLE IF NOT EXISTS table_rows (
		table_name TEXT    NOT NULL,
		position   INTEGER NOT NULL,
		cells      TEXT[]  NOT NULL,
		PRIMARY KEY (table_name, position)
	);
`

// TableStore keeps every logical table as a header row plus ordered row
// arrays, so the service sees the same shape as the CSV backend.
type TableStore struct {
	db *DB
}

func NewTableStore(pool *pgxpool.Pool) *TableStore {
	return &TableStore{db: NewDB(pool)}
}

// EnsureSchema creates the backing tables if they do not exist yet.
func (s *TableStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool().Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create table schema: %w", err)
	}
	return nil
}

// ReadAll returns the rows of name in stored order.
func (s *TableStore) ReadAll(ctx context.Context, name string) (*storage.Table, error) {
	t := &storage.Table{Name: name}

	var header []string
	err := s.db.Pool().QueryRow(ctx,
		`SELECT columns FROM table_headers WHERE table_name = $1`, name,
	).Scan(pq.Array(&header))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	t.Header = header

	rows, err := s.db.Pool().Query(ctx,
		`SELECT cells FROM table_rows WHERE table_name = $1 ORDER BY position`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cells []string
		if err := rows.Scan(pq.Array(&cells)); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows of %s: %w", name, err)
	}
	return t, nil
}

// WriteAll replaces header and rows of t.Name inside one transaction.
func (s *TableStore) WriteAll(ctx context.Context, t *storage.Table) error {
	return s.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM table_rows WHERE table_name = $1`, t.Name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.Name, err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO table_headers (table_name, columns) VALUES ($1, $2)
			ON CONFLICT (table_name) DO UPDATE SET columns = EXCLUDED.columns
		`, t.Name, pq.Array(nonNil(t.Header)))
		if err != nil {
			return fmt.Errorf("failed to write header of %s: %w", t.Name, err)
		}

		if len(t.Rows) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, row := range t.Rows {
			batch.Queue(
				`INSERT INTO table_rows (table_name, position, cells) VALUES ($1, $2, $3)`,
				t.Name, i, pq.Array(nonNil(row)),
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range t.Rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert rows of %s: %w", t.Name, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert rows of %s: %w", t.Name, err)
		}
		return nil
	})
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
