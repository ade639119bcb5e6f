package storage

import "sync"

// TableLocks serializes read-modify-write cycles per logical table within
// one process. Callers that need several tables lock the customers table
// first.
type TableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTableLocks() *TableLocks {
	return &TableLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until table is free and returns the matching unlock.
func (l *TableLocks) Lock(table string) func() {
	l.mu.Lock()
	m, ok := l.locks[table]
	if !ok {
		m = &sync.Mutex{}
		l.locks[table] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
