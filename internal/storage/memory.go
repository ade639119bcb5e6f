package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kunden-service/internal/domain/backup"
	xerrors "kunden-service/internal/pkg/errors"
)

// MemoryStore is an in-memory TableStore for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.Mutex
	tables   map[string]*Table
	writes   map[string]int
	err      error
	writeErr map[string]error // per-table write failures
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:   make(map[string]*Table),
		writes:   make(map[string]int),
		writeErr: make(map[string]error),
	}
}

// WithError makes every following call fail with err.
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailWrites makes every following write of table fail with err. A nil err
// clears the failure.
func (m *MemoryStore) FailWrites(table string, err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.writeErr, table)
	} else {
		m.writeErr[table] = err
	}
	return m
}

// Writes returns how many times table was rewritten.
func (m *MemoryStore) Writes(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[table]
}

func (m *MemoryStore) ReadAll(_ context.Context, name string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tables[name]
	if !ok {
		return &Table{Name: name}, nil
	}
	return t.Clone(), nil
}

func (m *MemoryStore) WriteAll(_ context.Context, t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := m.writeErr[t.Name]; err != nil {
		return err
	}
	m.tables[t.Name] = t.Clone()
	m.writes[t.Name]++
	return nil
}

// MemorySnapshots is an in-memory SnapshotStore.
type MemorySnapshots struct {
	mu        sync.Mutex
	snapshots map[string]memorySnapshot
}

type memorySnapshot struct {
	meta  backup.Snapshot
	table *Table
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{snapshots: make(map[string]memorySnapshot)}
}

func (m *MemorySnapshots) Save(_ context.Context, t *Table, at time.Time) (backup.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := SnapshotName(t.Name, at)
	name := base + ".csv"
	for n := 2; ; n++ {
		if _, taken := m.snapshots[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d.csv", base, n)
	}
	meta := backup.Snapshot{Name: name, Table: t.Name, CreatedAt: at}
	m.snapshots[name] = memorySnapshot{meta: meta, table: t.Clone()}
	return meta, nil
}

func (m *MemorySnapshots) List(_ context.Context, table string) ([]backup.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []backup.Snapshot
	for _, s := range m.snapshots {
		if s.meta.Table == table {
			out = append(out, s.meta)
		}
	}
	SortSnapshots(out)
	return out, nil
}

func (m *MemorySnapshots) Load(_ context.Context, name string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[name]
	if !ok {
		return nil, xerrors.ErrSnapshotNotFound
	}
	return s.table.Clone(), nil
}

func (m *MemorySnapshots) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[name]; !ok {
		return xerrors.ErrSnapshotNotFound
	}
	delete(m.snapshots, name)
	return nil
}

// SnapshotTimeLayout is the suffix appended to snapshot names.
const SnapshotTimeLayout = "20060102_150405"

// SnapshotName is the base name (without extension) of a snapshot of table taken at.
func SnapshotName(table string, at time.Time) string {
	return table + "_" + at.Format(SnapshotTimeLayout)
}

// SortSnapshots orders newest first; equal timestamps fall back to name, later suffix first.
func SortSnapshots(s []backup.Snapshot) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		if len(s[i].Name) != len(s[j].Name) {
			return len(s[i].Name) > len(s[j].Name)
		}
		return s[i].Name > s[j].Name
	})
}
