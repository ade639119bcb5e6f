package backup

import (
	"context"
	"strings"
	"testing"
	"time"

	"kunden-service/internal/domain/audit"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/repository/records"
	auditsvc "kunden-service/internal/service/audit"
	"kunden-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store     *storage.MemoryStore
	snapshots *storage.MemorySnapshots
	audit     *auditsvc.AuditService
	svc       *BackupService
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     storage.NewMemoryStore(),
		snapshots: storage.NewMemorySnapshots(),
		clock:     time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local),
	}
	locks := storage.NewTableLocks()
	f.audit = auditsvc.NewAuditService(records.NewAuditRepository(f.store, zap.NewNop()), locks, nil, zap.NewNop())
	f.svc = NewBackupService(f.store, f.snapshots, locks, f.audit, nil, 0, zap.NewNop()).
		WithClock(func() time.Time { return f.clock })
	return f
}

func customersTable(ids ...string) *storage.Table {
	t := &storage.Table{
		Name:   storage.TableCustomers,
		Header: []string{"ID", "Vorname", "Nachname", "E-Mail"},
	}
	for _, id := range ids {
		t.Rows = append(t.Rows, []string{id, "Vor" + id, "Nach" + id, id + "@x.de"})
	}
	return t
}

func TestSnapshotTables_AppliesRetention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.WriteAll(ctx, customersTable("1")))

	var pruned []string
	for i := 0; i < DefaultRetention+3; i++ {
		res, err := f.svc.SnapshotTables(ctx, storage.TableCustomers)
		require.NoError(t, err)
		require.Len(t, res.Created, 1)
		pruned = append(pruned, res.Pruned...)
		f.clock = f.clock.Add(time.Second)
	}

	list, err := f.svc.List(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Len(t, list, DefaultRetention)
	assert.Len(t, pruned, 3)
	assert.Equal(t, "kunden_20240501_090000.csv", pruned[0])
	assert.Equal(t, "kunden_20240501_090022.csv", list[0].Name)
}

func TestSnapshotAll_SkipsNeverWrittenTables(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.WriteAll(ctx, customersTable("1")))

	res, err := f.svc.SnapshotAll(ctx)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, storage.TableCustomers, res.Created[0].Table)
}

func TestRestore_ReplacesTableRowForRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.WriteAll(ctx, customersTable("1", "2")))
	res, err := f.svc.SnapshotTables(ctx, storage.TableCustomers)
	require.NoError(t, err)
	snapshot := res.Created[0].Name

	f.clock = f.clock.Add(time.Hour)
	require.NoError(t, f.store.WriteAll(ctx, customersTable("1", "2", "3")))

	require.NoError(t, f.svc.Restore(ctx, "Anna Admin", storage.TableCustomers, snapshot))

	live, err := f.store.ReadAll(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, customersTable("1", "2").Rows, live.Rows)

	list, err := f.svc.List(ctx, storage.TableCustomers)
	require.NoError(t, err)
	require.Len(t, list, 2, "pre-restore state is kept as a snapshot")
	pre, err := f.snapshots.Load(ctx, list[0].Name)
	require.NoError(t, err)
	assert.Len(t, pre.Rows, 3)

	entries, _, err := f.audit.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionRestored, entries[0].Action)
	assert.Equal(t, "Anna Admin", entries[0].User)
	assert.Contains(t, entries[0].Detail, snapshot)
}

func TestRestore_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.WriteAll(ctx, &storage.Table{
		Name: storage.TableComments, Header: []string{"Kunden-ID", "Datum", "Kommentar"},
	}))
	res, err := f.svc.SnapshotTables(ctx, storage.TableComments)
	require.NoError(t, err)

	err = f.svc.Restore(ctx, "a", storage.TableCustomers, "kunden_19990101_000000.csv")
	assert.ErrorIs(t, err, xerrors.ErrSnapshotNotFound)

	err = f.svc.Restore(ctx, "a", storage.TableCustomers, res.Created[0].Name)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	err = f.svc.Restore(ctx, "a", "passwoerter", res.Created[0].Name)
	assert.ErrorIs(t, err, xerrors.ErrUnknownTable)
}

func TestRestoreUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.WriteAll(ctx, customersTable("1")))

	err := f.svc.RestoreUpload(ctx, "a", storage.TableCustomers, "upload.csv",
		strings.NewReader("Name,Telefon\nAnna,123\n"))
	assert.ErrorIs(t, err, xerrors.ErrHeaderMismatch)

	live, err := f.store.ReadAll(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Len(t, live.Rows, 1, "rejected upload leaves the table alone")

	upload := "ID,Vorname,Nachname,E-Mail\n7,Anna,Keller,a@x.de\n9,Ben,Braun,b@x.de\n"
	require.NoError(t, f.svc.RestoreUpload(ctx, "a", storage.TableCustomers, "upload.csv", strings.NewReader(upload)))

	live, err = f.store.ReadAll(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"7", "Anna", "Keller", "a@x.de"}, {"9", "Ben", "Braun", "b@x.de"}}, live.Rows)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.WriteAll(ctx, customersTable("1")))

	out, err := f.svc.Export(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, "ID,Vorname,Nachname,E-Mail\n1,Vor1,Nach1,1@x.de\n", string(out))

	_, err = f.svc.Export(ctx, "nope")
	assert.ErrorIs(t, err, xerrors.ErrUnknownTable)
}

func TestRestore_SequencesNeverLowered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seq := records.NewSequenceRepository(f.store)

	require.NoError(t, seq.Set(ctx, storage.TableCustomers, 3))
	res, err := f.svc.SnapshotTables(ctx, storage.TableSequences)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)

	require.NoError(t, seq.Set(ctx, storage.TableCustomers, 8))

	f.clock = f.clock.Add(time.Minute)
	require.NoError(t, f.svc.Restore(ctx, "a", storage.TableSequences, res.Created[0].Name))

	v, err := seq.Get(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)

	upload := "Tabelle,Wert\nkunden,12\nlegacy,4\n"
	require.NoError(t, f.svc.RestoreUpload(ctx, "a", storage.TableSequences, "seq.csv", strings.NewReader(upload)))

	v, err = seq.Get(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v, "a higher restored mark wins")
	v, err = seq.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}
