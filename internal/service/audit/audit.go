// internal/service/audit/audit.go
package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"kunden-service/internal/domain/audit"
	wstypes "kunden-service/internal/domain/websocket"
	"kunden-service/internal/repository/records"
	"kunden-service/internal/storage"

	"go.uber.org/zap"
)

type AuditService struct {
	repo      *records.AuditRepository
	locks     *storage.TableLocks
	publisher wstypes.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuditService(
	repo *records.AuditRepository,
	locks *storage.TableLocks,
	publisher wstypes.Publisher,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		repo:      repo,
		locks:     locks,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	s.now = now
	return s
}

// Record appends one entry stamped with the current time and actor.
func (s *AuditService) Record(ctx context.Context, actor string, action audit.Action, customerID int64, detail string) (*audit.Entry, error) {
	unlock := s.locks.Lock(storage.TableAudit)
	defer unlock()

	e := audit.Entry{
		Timestamp:  s.now().Truncate(time.Second),
		User:       actor,
		Action:     action,
		CustomerID: customerID,
		Detail:     detail,
	}
	if err := s.repo.Append(ctx, e); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("action", string(action)),
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(wstypes.EventTypeAuditLog, e)
	}
	return &e, nil
}

// List returns entries newest first. customerID 0 returns all of them.
func (s *AuditService) List(ctx context.Context, customerID int64) ([]audit.Entry, []string, error) {
	l, err := s.repo.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make([]audit.Entry, 0, len(l.Items))
	for i := len(l.Items) - 1; i >= 0; i-- {
		if customerID == 0 || l.Items[i].CustomerID == customerID {
			out = append(out, l.Items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, l.Warnings(), nil
}

// Diff describes every column in cols whose rendered value differs between
// before and after, as "Col: 'old' → 'new'" joined by "; ".
func Diff(before, after map[string]string, cols []string) string {
	var changes []string
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if seen[col] {
			continue
		}
		seen[col] = true
		if before[col] != after[col] {
			changes = append(changes, fmt.Sprintf("%s: '%s' → '%s'", col, before[col], after[col]))
		}
	}
	if len(changes) == 0 {
		return audit.NoChanges
	}
	return strings.Join(changes, "; ")
}
