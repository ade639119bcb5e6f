package customer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/domain/customer"
	wstypes "kunden-service/internal/domain/websocket"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/repository/records"
	auditsvc "kunden-service/internal/service/audit"
	backupsvc "kunden-service/internal/service/backup"
	commentsvc "kunden-service/internal/service/comment"
	"kunden-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const actor = "Anna Admin"

type capturePublisher struct {
	mu     sync.Mutex
	events []wstypes.EventType
}

func (p *capturePublisher) Publish(event wstypes.EventType, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type fixture struct {
	store     *storage.MemoryStore
	snapshots *storage.MemorySnapshots
	svc       *CustomerService
	comments  *commentsvc.CommentService
	audit     *auditsvc.AuditService
	backups   *backupsvc.BackupService
	publisher *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	now := func() time.Time { return clock }

	f := &fixture{
		store:     storage.NewMemoryStore(),
		snapshots: storage.NewMemorySnapshots(),
		publisher: &capturePublisher{},
	}
	locks := storage.NewTableLocks()
	f.audit = auditsvc.NewAuditService(records.NewAuditRepository(f.store, logger), locks, f.publisher, logger).WithClock(now)
	f.comments = commentsvc.NewCommentService(records.NewCommentRepository(f.store, logger), locks, f.publisher, logger).WithClock(now)
	f.backups = backupsvc.NewBackupService(f.store, f.snapshots, locks, f.audit, nil, 0, logger).WithClock(now)
	f.svc = NewCustomerService(
		records.NewCustomerRepository(f.store, logger),
		records.NewSequenceRepository(f.store),
		f.comments,
		f.audit,
		f.backups,
		locks,
		f.publisher,
		logger,
	)
	return f
}

func createReq(first, last, email string) *customer.CreateCustomerRequest {
	return &customer.CreateCustomerRequest{FirstName: first, LastName: last, Email: email}
}

func (f *fixture) create(t *testing.T, first, last, email string) *customer.Customer {
	t.Helper()
	c, err := f.svc.CreateCustomer(context.Background(), actor, createReq(first, last, email))
	require.NoError(t, err)
	return c
}

func TestCreateCustomer_AnnaKeller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.CreateCustomer(ctx, actor, &customer.CreateCustomerRequest{
		FirstName: "Anna",
		LastName:  "Keller",
		Email:     "a@x.de",
		Product:   customer.ProductNone,
		Status:    customer.StatusInterested,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	list, err := f.svc.ListCustomers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Customers, 1)
	assert.Equal(t, 1, list.Total)

	entries, _, err := f.audit.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreated, entries[0].Action)
	assert.Equal(t, int64(1), entries[0].CustomerID)
	assert.Equal(t, actor, entries[0].User)

	assert.Contains(t, f.publisher.events, wstypes.EventTypeCustomerCreated)
}

func TestCreateCustomer_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.create(t, "  Ben ", "Braun", "b@x.de")
	assert.Equal(t, "Ben", c.FirstName)
	assert.Equal(t, customer.ProductNone, c.Product)
	assert.Equal(t, customer.StatusInterested, c.Status)

	_, err := f.svc.CreateCustomer(ctx, actor, createReq("Cem", "", "c@x.de"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = f.svc.CreateCustomer(ctx, actor, &customer.CreateCustomerRequest{
		FirstName: "Cem", LastName: "Yilmaz", Email: "c@x.de", Tags: []string{"VIP"},
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	list, err := f.svc.ListCustomers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Customers, 1)
}

func TestCreateCustomer_DuplicateNameRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "Anna", "Keller", "a@x.de")
	writes := f.store.Writes(storage.TableCustomers)

	_, err := f.svc.CreateCustomer(ctx, actor, createReq(" anna", "KELLER ", "other@x.de"))
	assert.ErrorIs(t, err, xerrors.ErrDuplicateName)
	assert.Equal(t, writes, f.store.Writes(storage.TableCustomers))

	list, err := f.svc.ListCustomers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Customers, 1)
}

func TestCreateCustomer_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := f.create(t, "A", "A", "a@x.de")
	b := f.create(t, "B", "B", "b@x.de")
	require.NoError(t, f.svc.DeleteCustomer(ctx, actor, b.ID))
	c := f.create(t, "C", "C", "c@x.de")
	require.NoError(t, f.svc.DeleteCustomer(ctx, actor, a.ID))
	require.NoError(t, f.svc.DeleteCustomer(ctx, actor, c.ID))
	d := f.create(t, "D", "D", "d@x.de")

	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{a.ID, b.ID, c.ID, d.ID})
}

func TestCreateCustomer_InitialComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := createReq("Anna", "Keller", "a@x.de")
	req.Comment = "Rückruf vereinbart"
	c, err := f.svc.CreateCustomer(ctx, actor, req)
	require.NoError(t, err)

	comments, err := f.comments.ListFor(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Rückruf vereinbart", comments[0].Text)
}

func TestCreateCustomer_SnapshotsOnWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "Anna", "Keller", "a@x.de")

	list, err := f.snapshots.List(ctx, storage.TableCustomers)
	require.NoError(t, err)
	require.Len(t, list, 1)

	snap, err := f.snapshots.Load(ctx, list[0].Name)
	require.NoError(t, err)
	assert.Len(t, snap.Rows, 1)
}

func TestUpdateCustomer_PartialLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orig, err := f.svc.CreateCustomer(ctx, actor, &customer.CreateCustomerRequest{
		FirstName:   "Anna",
		LastName:    "Keller",
		Email:       "a@x.de",
		Address:     "Hauptstr. 1",
		Product:     customer.ProductExpertAdvisor,
		Tags:        []string{customer.TagLITEA},
		AccountIDs:  []string{"1001", "1002"},
		InvoiceSent: true,
	})
	require.NoError(t, err)

	email := "b@x.de"
	updated, err := f.svc.UpdateCustomer(ctx, actor, orig.ID, &customer.UpdateCustomerRequest{Email: &email})
	require.NoError(t, err)

	want := *orig
	want.Email = "b@x.de"
	assert.Equal(t, want, *updated)

	stored, err := f.svc.GetCustomer(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, want, *stored)

	entries, _, err := f.audit.List(ctx, orig.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionEdited, entries[0].Action)
	assert.Equal(t, "E-Mail: 'a@x.de' → 'b@x.de'", entries[0].Detail)
}

func TestUpdateCustomer_NoChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.create(t, "Anna", "Keller", "a@x.de")

	email := "a@x.de"
	_, err := f.svc.UpdateCustomer(ctx, actor, c.ID, &customer.UpdateCustomerRequest{Email: &email})
	require.NoError(t, err)

	entries, _, err := f.audit.List(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, audit.NoChanges, entries[0].Detail)
}

func TestUpdateCustomer_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.create(t, "Anna", "Keller", "a@x.de")

	email := "b@x.de"
	_, err := f.svc.UpdateCustomer(ctx, actor, 42, &customer.UpdateCustomerRequest{Email: &email})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	bad := customer.Product("Goldbarren")
	_, err = f.svc.UpdateCustomer(ctx, actor, c.ID, &customer.UpdateCustomerRequest{Product: &bad, Email: &email})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	stored, err := f.svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.de", stored.Email, "failed update writes nothing")
}

func TestDeleteCustomer_CascadesComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "Anna", "Keller", "a@x.de")
	b := f.create(t, "Ben", "Braun", "b@x.de")

	for _, id := range []int64{a.ID, b.ID, a.ID} {
		_, err := f.comments.Append(ctx, actor, id, "notiz")
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.DeleteCustomer(ctx, actor, a.ID))

	list, err := f.svc.ListCustomers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Customers, 1)
	assert.Equal(t, *b, list.Customers[0])

	left, err := f.comments.ListFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := f.comments.ListFor(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	entries, _, err := f.audit.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "audit entries survive the delete")
	assert.Equal(t, audit.ActionDeleted, entries[0].Action)

	assert.ErrorIs(t, f.svc.DeleteCustomer(ctx, actor, a.ID), xerrors.ErrNotFound)
}

func TestTags_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.create(t, "Anna", "Keller", "a@x.de")

	got, err := f.svc.AddTag(ctx, actor, c.ID, customer.TagLITSignal)
	require.NoError(t, err)
	got, err = f.svc.AddTag(ctx, actor, c.ID, customer.TagPurchased)
	require.NoError(t, err)
	got, err = f.svc.AddTag(ctx, actor, c.ID, customer.TagLITSignal)
	require.NoError(t, err)
	assert.Equal(t, []string{customer.TagLITSignal, customer.TagPurchased}, got.Tags)

	got, err = f.svc.RemoveTag(ctx, actor, c.ID, customer.TagLITSignal)
	require.NoError(t, err)
	assert.Equal(t, []string{customer.TagPurchased}, got.Tags)

	_, err = f.svc.AddTag(ctx, actor, c.ID, "VIP")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestListCustomers_ReportsUnreadableRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.WriteAll(ctx, &storage.Table{
		Name:   storage.TableCustomers,
		Header: customer.Columns[:4],
		Rows: [][]string{
			{"1", "Anna", "Keller", "a@x.de"},
			{"x", "Ben", "Braun", "b@x.de"},
			{"5", "Cem", "Yilmaz", "c@x.de"},
		},
	}))

	list, err := f.svc.ListCustomers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Customers, 2)
	assert.Len(t, list.Warnings, 1)

	_, err = f.svc.CreateCustomer(ctx, actor, createReq("Ben", "Braun", "b2@x.de"))
	assert.ErrorIs(t, err, xerrors.ErrDuplicateName, "unreadable rows still reserve their name")

	d := f.create(t, "Dana", "Dorn", "d@x.de")
	assert.Equal(t, int64(6), d.ID)
}

func TestDeleteCustomer_CommentFailureStillAudited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "Anna", "Keller", "a@x.de")
	_, err := f.comments.Append(ctx, actor, a.ID, "notiz")
	require.NoError(t, err)

	f.store.FailWrites(storage.TableComments, errors.New("disk full"))
	require.NoError(t, f.svc.DeleteCustomer(ctx, actor, a.ID))

	_, err = f.svc.GetCustomer(ctx, a.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	entries, _, err := f.audit.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionDeleted, entries[0].Action)
	assert.Equal(t, "Anna Keller", entries[0].Detail)

	left, err := f.comments.ListFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1, "comment cascade did not run")
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "Anna", "Keller", "a@x.de")

	c, err := f.svc.AddComment(ctx, actor, a.ID, "  Rückruf vereinbart \n")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Rückruf vereinbart", c.Text)

	c, err = f.svc.AddComment(ctx, actor, a.ID, "   ")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = f.svc.AddComment(ctx, actor, 99, "hallo")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	got, err := f.comments.ListFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAddComment_RacingDeleteLeavesNoOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "Anna", "Keller", "a@x.de")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddComment(ctx, actor, a.ID, fmt.Sprintf("notiz %d", i))
			if err != nil {
				assert.ErrorIs(t, err, xerrors.ErrNotFound)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.svc.DeleteCustomer(ctx, actor, a.ID))
	}()
	wg.Wait()

	left, err := f.comments.ListFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCreateCustomer_ConcurrentCallsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const n = 50

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.svc.CreateCustomer(ctx, actor, createReq("Kunde", fmt.Sprintf("Nr%d", i), fmt.Sprintf("k%d@x.de", i)))
			if assert.NoError(t, err) {
				ids <- c.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, n)

	list, err := f.svc.ListCustomers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Customers, n)
	for _, c := range list.Customers {
		assert.True(t, seen[c.ID])
	}
}
