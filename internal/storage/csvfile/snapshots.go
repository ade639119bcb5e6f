package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kunden-service/internal/domain/backup"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/storage"
)

// Snapshots keeps backup copies as <dir>/<table>_<YYYYMMDD_HHMMSS>[_N].csv.
type Snapshots struct {
	dir string
}

func NewSnapshots(dir string) (*Snapshots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir %s: %w", dir, err)
	}
	return &Snapshots{dir: dir}, nil
}

func (s *Snapshots) Save(_ context.Context, t *storage.Table, at time.Time) (backup.Snapshot, error) {
	base := storage.SnapshotName(t.Name, at)
	name := base + ".csv"
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(s.dir, name)); errors.Is(err, fs.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s_%d.csv", base, n)
	}

	path := filepath.Join(s.dir, name)
	if err := writeFileAtomic(s.dir, path, t); err != nil {
		return backup.Snapshot{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return backup.Snapshot{}, err
	}
	return backup.Snapshot{Name: name, Table: t.Name, CreatedAt: at, Size: info.Size()}, nil
}

func (s *Snapshots) List(_ context.Context, table string) ([]backup.Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var out []backup.Snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		tbl, at, ok := ParseSnapshotName(e.Name())
		if !ok || tbl != table {
			continue
		}
		snap := backup.Snapshot{Name: e.Name(), Table: tbl, CreatedAt: at}
		if info, err := e.Info(); err == nil {
			snap.Size = info.Size()
		}
		out = append(out, snap)
	}
	storage.SortSnapshots(out)
	return out, nil
}

func (s *Snapshots) Load(_ context.Context, name string) (*storage.Table, error) {
	table, _, ok := ParseSnapshotName(name)
	if !ok {
		return nil, xerrors.ErrSnapshotNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, xerrors.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", name, err)
	}
	defer f.Close()
	return Decode(table, f)
}

func (s *Snapshots) Delete(_ context.Context, name string) error {
	if _, _, ok := ParseSnapshotName(name); !ok {
		return xerrors.ErrSnapshotNotFound
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return xerrors.ErrSnapshotNotFound
	}
	return err
}

// ParseSnapshotName splits "kunden_20240501_093000.csv" (optionally with a
// "_N" collision suffix) into table and time. Anything containing a path
// separator is rejected.
func ParseSnapshotName(name string) (string, time.Time, bool) {
	if strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".csv") {
		return "", time.Time{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".csv"), "_")
	if len(parts) < 3 || len(parts) > 4 {
		return "", time.Time{}, false
	}
	at, err := time.ParseInLocation(storage.SnapshotTimeLayout, parts[1]+"_"+parts[2], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	if len(parts) == 4 {
		if n, err := strconv.Atoi(parts[3]); err != nil || n < 2 {
			return "", time.Time{}, false
		}
	}
	if !storage.KnownTable(parts[0]) {
		return "", time.Time{}, false
	}
	return parts[0], at, true
}
