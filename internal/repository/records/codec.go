// Package records maps whole storage tables onto typed domain rows.
package records

import (
	"sort"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/domain/comment"
	"kunden-service/internal/domain/customer"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/storage"
)

// BrokenRow is a persisted row that failed to parse. It is written back as-is
// (re-mapped onto the current header) so nothing is lost on the next rewrite.
type BrokenRow struct {
	After  int               // number of readable rows that precede it
	ID     int64             // owning identifier if it could be read, else 0
	Values map[string]string // column -> raw cell
}

// Loaded is the typed view of one table plus whatever could not be read.
type Loaded[T any] struct {
	Items  []T
	Broken []BrokenRow
	Errors xerrors.RowErrors
}

// Warnings renders the row errors for API responses.
func (l *Loaded[T]) Warnings() []string {
	if len(l.Errors) == 0 {
		return nil
	}
	out := make([]string, len(l.Errors))
	for i, e := range l.Errors {
		out[i] = e.Error()
	}
	return out
}

// Remove drops Items[idx] and keeps every unreadable row at its place
// relative to the readable rows around it.
func (l *Loaded[T]) Remove(idx int) {
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	for i := range l.Broken {
		if l.Broken[i].After > idx {
			l.Broken[i].After--
		}
	}
}

// MaxBrokenID is the highest identifier seen among unreadable rows.
func (l *Loaded[T]) MaxBrokenID() int64 {
	var max int64
	for _, b := range l.Broken {
		if b.ID > max {
			max = b.ID
		}
	}
	return max
}

type codec[T any] struct {
	table   string
	columns []string
	// parse returns the offending column alongside the error.
	parse func(header, cells []string) (T, string, error)
	cells func(item *T) []string
	// id extracts the owning identifier from a raw row, if any.
	id func(values map[string]string) int64
}

func (c codec[T]) decode(t *storage.Table) *Loaded[T] {
	l := &Loaded[T]{}
	for i, row := range t.Rows {
		item, col, err := c.parse(t.Header, row)
		if err == nil {
			l.Items = append(l.Items, item)
			continue
		}

		values := rowValues(t.Header, row)
		l.Broken = append(l.Broken, BrokenRow{After: len(l.Items), ID: c.id(values), Values: values})
		l.Errors = append(l.Errors, xerrors.RowError{
			Table:  c.table,
			Row:    i + 1,
			Column: col,
			Value:  values[col],
			Err:    err,
		})
	}
	return l
}

func (c codec[T]) encode(l *Loaded[T]) *storage.Table {
	t := &storage.Table{
		Name:   c.table,
		Header: append([]string(nil), c.columns...),
		Rows:   make([][]string, 0, len(l.Items)+len(l.Broken)),
	}

	broken := append([]BrokenRow(nil), l.Broken...)
	sort.SliceStable(broken, func(i, j int) bool { return broken[i].After < broken[j].After })
	next := 0
	flush := func(upTo int) {
		for ; next < len(broken) && broken[next].After <= upTo; next++ {
			t.Rows = append(t.Rows, c.rawCells(broken[next].Values))
		}
	}
	for i := range l.Items {
		flush(i)
		t.Rows = append(t.Rows, c.cells(&l.Items[i]))
	}
	// trailing unreadable rows, including any whose anchor no longer exists
	for ; next < len(broken); next++ {
		t.Rows = append(t.Rows, c.rawCells(broken[next].Values))
	}
	return t
}

func (c codec[T]) rawCells(values map[string]string) []string {
	cells := make([]string, len(c.columns))
	for i, col := range c.columns {
		cells[i] = values[col]
	}
	return cells
}

func rowValues(header, cells []string) map[string]string {
	values := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(cells) {
			values[h] = cells[i]
		}
	}
	return values
}

// RequiredColumns lists what a table must carry before it is accepted as a
// restore source.
func RequiredColumns(table string) []string {
	switch table {
	case storage.TableCustomers:
		return []string{customer.ColID, customer.ColFirstName, customer.ColLastName, customer.ColEmail}
	case storage.TableComments:
		return comment.Columns
	case storage.TableAudit:
		return audit.Columns
	case storage.TableSequences:
		return []string{colSequenceName, colSequenceValue}
	}
	return nil
}
