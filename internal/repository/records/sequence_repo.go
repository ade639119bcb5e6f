// internal/repository/records/sequence_repo.go
package records

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"kunden-service/internal/storage"
)

const (
	colSequenceName  = "Tabelle"
	colSequenceValue = "Wert"
)

// SequenceRepository persists identifier high-water marks so an id freed by a
// delete is never handed out again.
type SequenceRepository struct {
	store storage.TableStore
}

func NewSequenceRepository(store storage.TableStore) *SequenceRepository {
	return &SequenceRepository{store: store}
}

// Get returns the last issued id for name, 0 if none was recorded.
func (r *SequenceRepository) Get(ctx context.Context, name string) (int64, error) {
	values, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return values[name], nil
}

// Set records v as the last issued id for name. Values never move backwards.
func (r *SequenceRepository) Set(ctx context.Context, name string, v int64) error {
	values, err := r.load(ctx)
	if err != nil {
		return err
	}
	if values[name] >= v {
		return nil
	}
	values[name] = v

	if err := r.store.WriteAll(ctx, encodeSequences(values)); err != nil {
		return fmt.Errorf("failed to write sequences: %w", err)
	}
	return nil
}

func (r *SequenceRepository) load(ctx context.Context) (map[string]int64, error) {
	t, err := r.store.ReadAll(ctx, storage.TableSequences)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequences: %w", err)
	}
	return decodeSequences(t), nil
}

// MergeSequences combines a restored sequences table with the live one,
// keeping the larger mark per name so a restore cannot lower it.
func MergeSequences(live, restored *storage.Table) *storage.Table {
	values := decodeSequences(live)
	for name, v := range decodeSequences(restored) {
		if v > values[name] {
			values[name] = v
		}
	}
	return encodeSequences(values)
}

func decodeSequences(t *storage.Table) map[string]int64 {
	values := make(map[string]int64)
	nameIdx, valueIdx := t.Index(colSequenceName), t.Index(colSequenceValue)
	if nameIdx < 0 || valueIdx < 0 {
		return values
	}
	for _, row := range t.Rows {
		if nameIdx >= len(row) || valueIdx >= len(row) {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(row[valueIdx]), 10, 64)
		if err != nil {
			continue
		}
		values[strings.TrimSpace(row[nameIdx])] = v
	}
	return values
}

// encodeSequences writes known tables first in their usual order, then any
// other names sorted.
func encodeSequences(values map[string]int64) *storage.Table {
	t := &storage.Table{
		Name:   storage.TableSequences,
		Header: []string{colSequenceName, colSequenceValue},
	}
	rest := make(map[string]int64, len(values))
	for n, v := range values {
		rest[n] = v
	}
	for _, tbl := range storage.Tables {
		if cur, ok := rest[tbl]; ok {
			t.Rows = append(t.Rows, []string{tbl, strconv.FormatInt(cur, 10)})
			delete(rest, tbl)
		}
	}
	names := make([]string, 0, len(rest))
	for n := range rest {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		t.Rows = append(t.Rows, []string{n, strconv.FormatInt(rest[n], 10)})
	}
	return t
}
