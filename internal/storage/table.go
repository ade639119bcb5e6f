// Package storage defines the persistence port: every logical table is read
// and rewritten as a whole.
package storage

import (
	"context"
	"time"

	"kunden-service/internal/domain/backup"
)

// Logical tables.
const (
	TableCustomers = "kunden"
	TableComments  = "kommentare"
	TableAudit     = "aenderungen"
	TableSequences = "sequenzen"
)

// Tables lists every logical table in snapshot order.
var Tables = []string{TableCustomers, TableComments, TableAudit, TableSequences}

func KnownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// Table is a header row plus data rows. A table that was never written has
// neither.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Empty reports whether the table was never initialised.
func (t *Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every col is part of the header.
func (t *Table) HasColumns(cols ...string) bool {
	for _, c := range cols {
		if t.Index(c) < 0 {
			return false
		}
	}
	return true
}

func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = append([]string(nil), r...)
		}
	}
	return out
}

// TableStore reads and replaces whole tables.
type TableStore interface {
	// ReadAll returns an empty table, not an error, when name was never written.
	ReadAll(ctx context.Context, name string) (*Table, error)
	// WriteAll replaces the stored table atomically.
	WriteAll(ctx context.Context, t *Table) error
}

// SnapshotStore keeps timestamped full copies of tables.
type SnapshotStore interface {
	Save(ctx context.Context, t *Table, at time.Time) (backup.Snapshot, error)
	// List returns snapshots of table, newest first.
	List(ctx context.Context, table string) ([]backup.Snapshot, error)
	Load(ctx context.Context, name string) (*Table, error)
	Delete(ctx context.Context, name string) error
}
