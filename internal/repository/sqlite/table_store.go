// internal/repository/sqlite/table_store.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"kunden-service/internal/storage"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS table_headers (
		table_name TEXT PRIMARY KEY,
		columns    TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS table_rows (
		table_name TEXT    NOT NULL,
		position   INTEGER NOT NULL,
		cells      TEXT    NOT NULL,
		PRIMARY KEY (table_name, position)
	);
`

// TableStore keeps tables in a single SQLite file. Header and cells are
// stored as JSON arrays.
type TableStore struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*TableStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &TableStore{conn: conn}, nil
}

func (s *TableStore) Close() error {
	return s.conn.Close()
}

func (s *TableStore) ReadAll(ctx context.Context, name string) (*storage.Table, error) {
	t := &storage.Table{Name: name}

	var rawHeader string
	err := s.conn.QueryRowContext(ctx,
		`SELECT columns FROM table_headers WHERE table_name = ?`, name,
	).Scan(&rawHeader)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	default:
		if err := json.Unmarshal([]byte(rawHeader), &t.Header); err != nil {
			return nil, fmt.Errorf("failed to decode header of %s: %w", name, err)
		}
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT cells FROM table_rows WHERE table_name = ? ORDER BY position`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row of %s: %w", name, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, rows.Err()
}

func (s *TableStore) WriteAll(ctx context.Context, t *storage.Table) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE table_name = ?`, t.Name); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.Name, err)
	}

	header, err := encode(t.Header)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO table_headers (table_name, columns) VALUES (?, ?)
		ON CONFLICT (table_name) DO UPDATE SET columns = excluded.columns
	`, t.Name, header)
	if err != nil {
		return fmt.Errorf("failed to write header of %s: %w", t.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO table_rows (table_name, position, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		cells, err := encode(row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, t.Name, i, cells); err != nil {
			return fmt.Errorf("failed to insert row %d of %s: %w", i+1, t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", t.Name, err)
	}
	return nil
}

func encode(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("failed to encode cells: %w", err)
	}
	return string(b), nil
}
