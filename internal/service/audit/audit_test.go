package audit

import (
	"context"
	"testing"
	"time"

	"kunden-service/internal/domain/audit"
	"kunden-service/internal/domain/customer"
	wstypes "kunden-service/internal/domain/websocket"
	"kunden-service/internal/repository/records"
	"kunden-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	events []wstypes.EventType
}

func (p *recordingPublisher) Publish(event wstypes.EventType, _ interface{}) {
	p.events = append(p.events, event)
}

func TestDiff(t *testing.T) {
	before := map[string]string{customer.ColEmail: "a@x.de", customer.ColAddress: "Berlin", customer.ColTags: "LIT-EA"}

	tests := []struct {
		name  string
		after map[string]string
		cols  []string
		want  string
	}{
		{
			name:  "email only",
			after: map[string]string{customer.ColEmail: "b@x.de", customer.ColAddress: "Berlin", customer.ColTags: "LIT-EA"},
			cols:  []string{customer.ColEmail, customer.ColAddress},
			want:  "E-Mail: 'a@x.de' → 'b@x.de'",
		},
		{
			name:  "no changes",
			after: before,
			cols:  []string{customer.ColEmail, customer.ColAddress, customer.ColTags},
			want:  audit.NoChanges,
		},
		{
			name:  "several fields in column order",
			after: map[string]string{customer.ColEmail: "b@x.de", customer.ColAddress: "Hamburg", customer.ColTags: "LIT-EA;gekauft"},
			cols:  []string{customer.ColEmail, customer.ColTags, customer.ColAddress},
			want:  "E-Mail: 'a@x.de' → 'b@x.de'; Tags: 'LIT-EA' → 'LIT-EA;gekauft'; Adresse: 'Berlin' → 'Hamburg'",
		},
		{
			name:  "unsupplied columns are ignored",
			after: map[string]string{customer.ColEmail: "a@x.de", customer.ColAddress: "Hamburg"},
			cols:  []string{customer.ColEmail},
			want:  audit.NoChanges,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(before, tt.after, tt.cols))
		})
	}
}

func TestAuditService_RecordAndList(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewAuditService(
		records.NewAuditRepository(storage.NewMemoryStore(), zap.NewNop()),
		storage.NewTableLocks(),
		pub,
		zap.NewNop(),
	)

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	svc.WithClock(func() time.Time { return clock })

	_, err := svc.Record(ctx, "Anna Admin", audit.ActionCreated, 1, "")
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	_, err = svc.Record(ctx, "Anna Admin", audit.ActionEdited, 1, "E-Mail: 'a@x.de' → 'b@x.de'")
	require.NoError(t, err)
	_, err = svc.Record(ctx, "Anna Admin", audit.ActionCreated, 2, "")
	require.NoError(t, err)

	all, warnings, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[0].CustomerID, "same second: last recorded first")
	assert.Equal(t, audit.ActionEdited, all[1].Action)
	assert.Equal(t, audit.ActionCreated, all[2].Action)

	one, _, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 2)

	assert.Equal(t, []wstypes.EventType{wstypes.EventTypeAuditLog, wstypes.EventTypeAuditLog, wstypes.EventTypeAuditLog}, pub.events)
}
