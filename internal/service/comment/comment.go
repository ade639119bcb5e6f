// internal/service/comment/comment.go
package comment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"kunden-service/internal/domain/comment"
	wstypes "kunden-service/internal/domain/websocket"
	"kunden-service/internal/repository/records"
	"kunden-service/internal/storage"

	"go.uber.org/zap"
)

type CommentService struct {
	repo      *records.CommentRepository
	locks     *storage.TableLocks
	publisher wstypes.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewCommentService(
	repo *records.CommentRepository,
	locks *storage.TableLocks,
	publisher wstypes.Publisher,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		repo:      repo,
		locks:     locks,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *CommentService) WithClock(now func() time.Time) *CommentService {
	s.now = now
	return s
}

// Append stores text for customerID stamped with the current local time.
// Text is stored trimmed; blank text is ignored and returns nil without
// touching the table.
func (s *CommentService) Append(ctx context.Context, actor string, customerID int64, text string) (*comment.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	unlock := s.locks.Lock(storage.TableComments)
	defer unlock()

	l, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	c := comment.Comment{
		CustomerID: customerID,
		CreatedAt:  s.now().Truncate(time.Second),
		Text:       text,
	}
	l.Items = append(l.Items, c)
	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.Error("failed to append comment", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("comment added", zap.Int64("customer_id", customerID), zap.String("actor", actor))
	if s.publisher != nil {
		s.publisher.Publish(wstypes.EventTypeCommentAdded, &wstypes.RecordEventData{
			CustomerID: customerID,
			Actor:      actor,
			Record:     c,
		})
	}
	return &c, nil
}

// ListFor returns the comments of customerID, newest first.
func (s *CommentService) ListFor(ctx context.Context, customerID int64) ([]comment.Comment, error) {
	l, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := []comment.Comment{}
	for i := len(l.Items) - 1; i >= 0; i-- {
		if l.Items[i].CustomerID == customerID {
			out = append(out, l.Items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteForCustomer removes every comment owned by customerID. The table is
// only rewritten when something was removed.
func (s *CommentService) DeleteForCustomer(ctx context.Context, customerID int64) (int, error) {
	unlock := s.locks.Lock(storage.TableComments)
	defer unlock()

	l, err := s.repo.Load(ctx)
	if err != nil {
		return 0, err
	}
	removed := records.RemoveCustomer(l, customerID)
	if removed == 0 {
		return 0, nil
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return 0, fmt.Errorf("failed to delete comments of customer %d: %w", customerID, err)
	}
	return removed, nil
}
