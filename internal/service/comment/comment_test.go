package comment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"kunden-service/internal/repository/records"
	"kunden-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(store *storage.MemoryStore, clock *time.Time) *CommentService {
	svc := NewCommentService(
		records.NewCommentRepository(store, zap.NewNop()),
		storage.NewTableLocks(),
		nil,
		zap.NewNop(),
	)
	return svc.WithClock(func() time.Time { return *clock })
}

func TestAppend_BlankTextIsNoOp(t *testing.T) {
	store := storage.NewMemoryStore()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	svc := newTestService(store, &clock)

	c, err := svc.Append(context.Background(), "Anna", 1, "   \n\t")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Zero(t, store.Writes(storage.TableComments))
}

func TestAppendAndListFor(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 500, time.Local)
	svc := newTestService(store, &clock)

	c, err := svc.Append(ctx, "Anna", 1, "Rückruf vereinbart")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.CreatedAt.Nanosecond())

	got, err := svc.ListFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rückruf vereinbart", got[0].Text)

	clock = clock.Add(time.Hour)
	_, err = svc.Append(ctx, "Anna", 1, "Rechnung verschickt")
	require.NoError(t, err)
	_, err = svc.Append(ctx, "Anna", 2, "anderer Kunde")
	require.NoError(t, err)

	got, err = svc.ListFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rechnung verschickt", got[0].Text)
	assert.Equal(t, "Rückruf vereinbart", got[1].Text)

	none, err := svc.ListFor(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteForCustomer(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	svc := newTestService(store, &clock)

	for _, id := range []int64{1, 2, 1} {
		_, err := svc.Append(ctx, "Anna", id, "notiz")
		require.NoError(t, err)
	}
	writes := store.Writes(storage.TableComments)

	removed, err := svc.DeleteForCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = svc.DeleteForCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, writes+1, store.Writes(storage.TableComments))

	rest, err := svc.ListFor(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestAppend_StoresTrimmedText(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	svc := newTestService(store, &clock)

	c, err := svc.Append(ctx, "Anna", 1, "\t Rückruf vereinbart  \n")
	require.NoError(t, err)
	assert.Equal(t, "Rückruf vereinbart", c.Text)

	got, err := svc.ListFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rückruf vereinbart", got[0].Text)
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	svc := newTestService(store, &clock)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Append(ctx, "Anna", 1, fmt.Sprintf("notiz %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := svc.ListFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, n)
	texts := map[string]bool{}
	for _, c := range got {
		texts[c.Text] = true
	}
	assert.Len(t, texts, n)
	assert.Equal(t, n, store.Writes(storage.TableComments))
}
