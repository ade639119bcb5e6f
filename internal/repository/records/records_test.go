package records

import (
	"context"
	"testing"
	"time"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/domain/comment"
	"kunden-service/internal/domain/customer"
	"kunden-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCustomerRepository_KeepsBrokenRowsOnRewrite(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.WriteAll(ctx, &storage.Table{
		Name:   storage.TableCustomers,
		Header: []string{"ID", "Vorname", "Nachname", "E-Mail", "Bestelldatum"},
		Rows: [][]string{
			{"1", "Anna", "Keller", "a@x.de", "2024-05-01"},
			{"2", "Ben", "Braun", "b@x.de", "gestern"},
			{"3.0", "Cem", "Yilmaz", "c@x.de", ""},
		},
	}))

	repo := NewCustomerRepository(store, zap.NewNop())
	l, err := repo.Load(ctx)
	require.NoError(t, err)

	require.Len(t, l.Items, 2)
	assert.Equal(t, int64(1), l.Items[0].ID)
	assert.Equal(t, int64(3), l.Items[1].ID)
	require.Len(t, l.Errors, 1)
	assert.Equal(t, 2, l.Errors[0].Row)
	assert.Equal(t, customer.ColOrderDate, l.Errors[0].Column)
	assert.Equal(t, "gestern", l.Errors[0].Value)
	assert.Equal(t, int64(2), l.MaxBrokenID())
	assert.Len(t, l.Warnings(), 1)

	l.Items[0].Email = "neu@x.de"
	require.NoError(t, repo.Save(ctx, l))

	raw, err := store.ReadAll(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, customer.Columns, raw.Header)
	require.Len(t, raw.Rows, 3)
	assert.Equal(t, "2", raw.Rows[1][raw.Index(customer.ColID)])
	assert.Equal(t, "gestern", raw.Rows[1][raw.Index(customer.ColOrderDate)])
	assert.Equal(t, "neu@x.de", raw.Rows[0][raw.Index(customer.ColEmail)])
	assert.Equal(t, "3", raw.Rows[2][raw.Index(customer.ColID)])
}

func TestCustomerRepository_RemoveKeepsBrokenRowInPlace(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.WriteAll(ctx, &storage.Table{
		Name:   storage.TableCustomers,
		Header: []string{"ID", "Vorname", "Nachname", "E-Mail", "Bestelldatum"},
		Rows: [][]string{
			{"1", "Anna", "Keller", "a@x.de", ""},
			{"2", "Ben", "Braun", "b@x.de", "gestern"},
			{"3", "Cem", "Yilmaz", "c@x.de", ""},
			{"4", "Dora", "Lang", "d@x.de", ""},
		},
	}))

	repo := NewCustomerRepository(store, zap.NewNop())
	l, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, l.Items, 3)

	l.Remove(0)
	require.NoError(t, repo.Save(ctx, l))

	raw, err := store.ReadAll(ctx, storage.TableCustomers)
	require.NoError(t, err)
	require.Len(t, raw.Rows, 3)
	idCol := raw.Index(customer.ColID)
	assert.Equal(t, "2", raw.Rows[0][idCol])
	assert.Equal(t, "3", raw.Rows[1][idCol])
	assert.Equal(t, "4", raw.Rows[2][idCol])
}

func TestCustomerRepository_EmptyStore(t *testing.T) {
	repo := NewCustomerRepository(storage.NewMemoryStore(), zap.NewNop())

	l, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, l.Items)
	assert.Empty(t, l.Errors)
	assert.Nil(t, l.Warnings())
}

func TestRemoveCustomer_DropsTypedAndBrokenRows(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	l := &Loaded[comment.Comment]{
		Items: []comment.Comment{
			{CustomerID: 1, CreatedAt: at, Text: "a"},
			{CustomerID: 2, CreatedAt: at, Text: "b"},
			{CustomerID: 1, CreatedAt: at, Text: "c"},
		},
		Broken: []BrokenRow{
			{After: 3, ID: 1, Values: map[string]string{comment.ColCustomerID: "1"}},
			{After: 3, ID: 2, Values: map[string]string{comment.ColCustomerID: "2"}},
		},
	}

	assert.Equal(t, 3, RemoveCustomer(l, 1))
	require.Len(t, l.Items, 1)
	assert.Equal(t, "b", l.Items[0].Text)
	require.Len(t, l.Broken, 1)
	assert.Equal(t, int64(2), l.Broken[0].ID)
}

func TestAuditRepository_Append(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewAuditRepository(store, zap.NewNop())
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

	require.NoError(t, repo.Append(ctx, audit.Entry{Timestamp: at, User: "Anna", Action: audit.ActionCreated, CustomerID: 1}))
	require.NoError(t, repo.Append(ctx, audit.Entry{Timestamp: at.Add(time.Second), User: "Anna", Action: audit.ActionRestored}))

	l, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, l.Items, 2)
	assert.Equal(t, audit.ActionCreated, l.Items[0].Action)
	assert.Equal(t, int64(0), l.Items[1].CustomerID)

	raw, err := store.ReadAll(ctx, storage.TableAudit)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 10:00:01", "Anna", "restored", "", ""}, raw.Rows[1])
}

func TestSequenceRepository_NeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	repo := NewSequenceRepository(storage.NewMemoryStore())

	v, err := repo.Get(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, repo.Set(ctx, storage.TableCustomers, 5))
	require.NoError(t, repo.Set(ctx, storage.TableCustomers, 3))

	v, err = repo.Get(ctx, storage.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}
