// internal/service/backup/backup.go
package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/domain/backup"
	wstypes "kunden-service/internal/domain/websocket"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/repository/records"
	auditsvc "kunden-service/internal/service/audit"
	"kunden-service/internal/storage"
	"kunden-service/internal/storage/csvfile"

	"go.uber.org/zap"
)

// DefaultRetention is how many snapshots are kept per table.
const DefaultRetention = 20

type BackupService struct {
	store     storage.TableStore
	snapshots storage.SnapshotStore
	locks     *storage.TableLocks
	audit     *auditsvc.AuditService
	publisher wstypes.Publisher
	retention int
	logger    *zap.Logger
	now       func() time.Time
}

func NewBackupService(
	store storage.TableStore,
	snapshots storage.SnapshotStore,
	locks *storage.TableLocks,
	audit *auditsvc.AuditService,
	publisher wstypes.Publisher,
	retention int,
	logger *zap.Logger,
) *BackupService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &BackupService{
		store:     store,
		snapshots: snapshots,
		locks:     locks,
		audit:     audit,
		publisher: publisher,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *BackupService) WithClock(now func() time.Time) *BackupService {
	s.now = now
	return s
}

// SnapshotAll copies every logical table.
func (s *BackupService) SnapshotAll(ctx context.Context) (*backup.SnapshotResult, error) {
	return s.SnapshotTables(ctx, storage.Tables...)
}

// SnapshotTables copies the named tables and prunes each down to the
// retention count. Tables that were never written are skipped.
func (s *BackupService) SnapshotTables(ctx context.Context, tables ...string) (*backup.SnapshotResult, error) {
	res := &backup.SnapshotResult{Created: []backup.Snapshot{}}
	at := s.now()

	for _, name := range tables {
		if !storage.KnownTable(name) {
			return nil, fmt.Errorf("%w: %s", xerrors.ErrUnknownTable, name)
		}
		t, err := s.store.ReadAll(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if t.Empty() {
			continue
		}

		snap, err := s.snapshots.Save(ctx, t, at)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", name, err)
		}
		res.Created = append(res.Created, snap)

		pruned, err := s.prune(ctx, name)
		if err != nil {
			return nil, err
		}
		res.Pruned = append(res.Pruned, pruned...)
	}

	if len(res.Created) > 0 {
		s.logger.Info("snapshots created",
			zap.Int("created", len(res.Created)),
			zap.Int("pruned", len(res.Pruned)),
		)
		if s.publisher != nil {
			s.publisher.Publish(wstypes.EventTypeBackupCreated, res)
		}
	}
	return res, nil
}

// prune deletes everything beyond the newest retention snapshots of table.
func (s *BackupService) prune(ctx context.Context, table string) ([]string, error) {
	list, err := s.snapshots.List(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots of %s: %w", table, err)
	}
	if len(list) <= s.retention {
		return nil, nil
	}

	var pruned []string
	for _, old := range list[s.retention:] {
		if err := s.snapshots.Delete(ctx, old.Name); err != nil {
			return pruned, fmt.Errorf("failed to prune %s: %w", old.Name, err)
		}
		pruned = append(pruned, old.Name)
	}
	return pruned, nil
}

// List returns the snapshots of table, newest first.
func (s *BackupService) List(ctx context.Context, table string) ([]backup.Snapshot, error) {
	if !storage.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", xerrors.ErrUnknownTable, table)
	}
	list, err := s.snapshots.List(ctx, table)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []backup.Snapshot{}
	}
	return list, nil
}

// Restore replaces the live table wholesale with the contents of a snapshot.
func (s *BackupService) Restore(ctx context.Context, actor, table, snapshot string) error {
	if !storage.KnownTable(table) {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownTable, table)
	}
	t, err := s.snapshots.Load(ctx, snapshot)
	if err != nil {
		return err
	}
	if t.Name != table {
		return xerrors.Invalid("snapshot %s belongs to table %s, not %s", snapshot, t.Name, table)
	}
	return s.replace(ctx, actor, t, snapshot)
}

// RestoreUpload replaces the live table with an uploaded CSV file.
func (s *BackupService) RestoreUpload(ctx context.Context, actor, table, filename string, r io.Reader) error {
	if !storage.KnownTable(table) {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownTable, table)
	}
	t, err := csvfile.Decode(table, r)
	if err != nil {
		return xerrors.Invalid("%v", err)
	}
	return s.replace(ctx, actor, t, filename)
}

func (s *BackupService) replace(ctx context.Context, actor string, t *storage.Table, source string) error {
	if required := records.RequiredColumns(t.Name); !t.HasColumns(required...) {
		return fmt.Errorf("%w: %s needs columns %v", xerrors.ErrHeaderMismatch, t.Name, required)
	}
	if err := s.swap(ctx, t, source); err != nil {
		return err
	}

	s.logger.Info("table restored",
		zap.String("table", t.Name),
		zap.String("source", source),
		zap.Int("rows", len(t.Rows)),
		zap.String("actor", actor),
	)

	detail := fmt.Sprintf("%s ← %s (%d Zeilen)", t.Name, source, len(t.Rows))
	if _, err := s.audit.Record(ctx, actor, audit.ActionRestored, 0, detail); err != nil {
		s.logger.Warn("failed to audit restore", zap.Error(err))
	}
	if s.publisher != nil {
		s.publisher.Publish(wstypes.EventTypeBackupRestored, map[string]interface{}{
			"table":  t.Name,
			"source": source,
			"actor":  actor,
		})
	}
	return nil
}

// swap snapshots the live table and then overwrites it, holding the table lock
// for both steps.
func (s *BackupService) swap(ctx context.Context, t *storage.Table, source string) error {
	unlock := s.locks.Lock(t.Name)
	defer unlock()

	current, err := s.store.ReadAll(ctx, t.Name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", t.Name, err)
	}
	if !current.Empty() {
		if _, err := s.snapshots.Save(ctx, current, s.now()); err != nil {
			return fmt.Errorf("failed to snapshot %s before restore: %w", t.Name, err)
		}
		if _, err := s.prune(ctx, t.Name); err != nil {
			s.logger.Warn("failed to prune snapshots", zap.String("table", t.Name), zap.Error(err))
		}
	}

	if t.Name == storage.TableSequences {
		t = records.MergeSequences(current, t)
	}
	if err := s.store.WriteAll(ctx, t); err != nil {
		s.logger.Error("restore failed", zap.String("table", t.Name), zap.String("source", source), zap.Error(err))
		return fmt.Errorf("failed to restore %s: %w", t.Name, err)
	}
	return nil
}

// Export returns the live table encoded as CSV.
func (s *BackupService) Export(ctx context.Context, table string) ([]byte, error) {
	if !storage.KnownTable(table) {
		return nil, fmt.Errorf("%w: %s", xerrors.ErrUnknownTable, table)
	}
	t, err := s.store.ReadAll(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return csvfile.Marshal(t)
}
